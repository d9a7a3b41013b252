package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/canvas-sync-api/api/swagger"
	"github.com/noah-isme/canvas-sync-api/internal/canvas"
	"github.com/noah-isme/canvas-sync-api/internal/handler"
	"github.com/noah-isme/canvas-sync-api/internal/middleware"
	"github.com/noah-isme/canvas-sync-api/internal/repository"
	"github.com/noah-isme/canvas-sync-api/internal/service"
	syncpkg "github.com/noah-isme/canvas-sync-api/internal/sync"
	"github.com/noah-isme/canvas-sync-api/pkg/cache"
	"github.com/noah-isme/canvas-sync-api/pkg/config"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
	"github.com/noah-isme/canvas-sync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/canvas-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/canvas-sync-api/pkg/middleware/requestid"
)

// @title Canvas Sync API
// @version 0.1.0
// @description Canvas LMS mirror and tool-query service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open mirror store", zap.Error(err))
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewRedisCacheRepository(redisClient)
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Query.CacheTTL, logr)

	canvasClient := canvas.New(cfg.Canvas)
	syncSvc := syncpkg.NewService(canvasClient, db, cfg.Sync, logr)

	querySvc := service.NewQueryService(service.QueryRepos{
		Courses:       repository.NewCourseRepository(db),
		Terms:         repository.NewTermRepository(db),
		Syllabi:       repository.NewSyllabusRepository(db),
		Assignments:   repository.NewAssignmentRepository(db),
		Modules:       repository.NewModuleRepository(db),
		Announcements: repository.NewAnnouncementRepository(db),
		Conversations: repository.NewConversationRepository(db),
		Calendar:      repository.NewCalendarRepository(db),
		Preferences:   repository.NewPreferenceRepository(db),
	}, cacheSvc, metrics, nil, logr, cfg.Query.DeadlinesDays)

	courseHandler := handler.NewCourseHandler(querySvc)
	preferenceHandler := handler.NewPreferenceHandler(querySvc)
	syncHandler := handler.NewSyncHandler(syncSvc, querySvc, metrics, logr)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)
		api.GET("/courses/:id/assignments", courseHandler.Assignments)
		api.GET("/courses/:id/modules", courseHandler.Modules)
		api.GET("/courses/:id/announcements", courseHandler.Announcements)
		api.GET("/courses/:id/syllabus", courseHandler.Syllabus)
		api.GET("/deadlines", courseHandler.Deadlines)

		api.PUT("/users/:userID/courses/:courseID/preference", preferenceHandler.Set)
		api.GET("/users/:userID/courses/:courseID/preference", preferenceHandler.Get)

		api.POST("/sync", syncHandler.Trigger)
		api.POST("/sync/courses", syncHandler.Courses)
		api.POST("/sync/courses/:id/:entity", syncHandler.SyncCourseEntity)
		api.POST("/sync/prune", syncHandler.Prune)

		api.GET("/status", metricsHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
