package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Term filter sentinels understood by the sync layer.
const (
	TermLatest = "latest"
	TermAll    = "all"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Canvas   CanvasConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Sync     SyncConfig
	Query    QueryConfig
	CORS     CORSConfig
}

// CORSConfig lists origins allowed to call the tool endpoints. Empty
// means allow all.
type CORSConfig struct {
	AllowedOrigins []string
}

// CanvasConfig holds credentials and tuning for the Canvas REST API.
type CanvasConfig struct {
	BaseURL        string
	AccessToken    string
	Timeout        time.Duration
	PageSize       int
	RequestsPerSec float64
	RequestBurst   int
}

// DatabaseConfig configures the embedded SQLite mirror store.
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
	// File enables a rotating log file sink when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// SyncConfig governs default filtering policy for sync operations.
type SyncConfig struct {
	// DefaultTerm is "latest", "all" or an explicit Canvas term id.
	DefaultTerm     string
	EnrollmentState string
	EnablePrune     bool
}

// QueryConfig tunes the read-side tool endpoints.
type QueryConfig struct {
	CacheTTL      time.Duration
	DeadlinesDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Canvas = CanvasConfig{
		BaseURL:        strings.TrimRight(v.GetString("CANVAS_BASE_URL"), "/"),
		AccessToken:    v.GetString("CANVAS_ACCESS_TOKEN"),
		Timeout:        parseDuration(v.GetString("CANVAS_TIMEOUT"), 30*time.Second),
		PageSize:       v.GetInt("CANVAS_PAGE_SIZE"),
		RequestsPerSec: v.GetFloat64("CANVAS_REQUESTS_PER_SEC"),
		RequestBurst:   v.GetInt("CANVAS_REQUEST_BURST"),
	}

	cfg.Database = DatabaseConfig{
		Path:         v.GetString("DB_PATH"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		BusyTimeout:  parseDuration(v.GetString("DB_BUSY_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
	}

	cfg.Sync = SyncConfig{
		DefaultTerm:     v.GetString("SYNC_DEFAULT_TERM"),
		EnrollmentState: v.GetString("SYNC_ENROLLMENT_STATE"),
		EnablePrune:     v.GetBool("SYNC_ENABLE_PRUNE"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	cfg.Query = QueryConfig{
		CacheTTL:      parseDuration(v.GetString("QUERY_CACHE_TTL"), 5*time.Minute),
		DeadlinesDays: v.GetInt("QUERY_DEADLINES_DAYS"),
	}

	if cfg.Canvas.AccessToken == "" {
		return nil, errors.New("CANVAS_ACCESS_TOKEN is required")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("CANVAS_BASE_URL", "https://canvas.instructure.com")
	v.SetDefault("CANVAS_ACCESS_TOKEN", "")
	v.SetDefault("CANVAS_TIMEOUT", "30s")
	v.SetDefault("CANVAS_PAGE_SIZE", 100)
	v.SetDefault("CANVAS_REQUESTS_PER_SEC", 5.0)
	v.SetDefault("CANVAS_REQUEST_BURST", 10)

	v.SetDefault("DB_PATH", "./data/canvas.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 3)

	v.SetDefault("SYNC_DEFAULT_TERM", TermLatest)
	v.SetDefault("SYNC_ENROLLMENT_STATE", "active")
	v.SetDefault("SYNC_ENABLE_PRUNE", false)

	v.SetDefault("QUERY_CACHE_TTL", "5m")
	v.SetDefault("QUERY_DEADLINES_DAYS", 7)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
