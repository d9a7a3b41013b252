// Package sync mirrors Canvas data into the local store. Each pass
// fetches, filters, validates and upserts; failures are isolated per
// course and per entity type and reported on the run result instead of
// aborting the pass.
package sync

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/canvas"
	"github.com/noah-isme/canvas-sync-api/internal/repository"
	"github.com/noah-isme/canvas-sync-api/pkg/config"
)

// CanvasAPI is the slice of the Canvas client the sync layer consumes.
type CanvasAPI interface {
	CurrentUser(ctx context.Context) (*canvas.User, error)
	ListCourses(ctx context.Context, enrollmentState string) ([]canvas.Course, error)
	GetCourse(ctx context.Context, courseID int64) (*canvas.Course, error)
	ListAssignments(ctx context.Context, courseID int64) ([]canvas.Assignment, error)
	ListModules(ctx context.Context, courseID int64) ([]canvas.Module, error)
	ListModuleItems(ctx context.Context, courseID, moduleID int64) ([]canvas.ModuleItem, error)
	ListAnnouncements(ctx context.Context, courseID int64) ([]canvas.Announcement, error)
	ListCalendarEvents(ctx context.Context, courseID int64) ([]canvas.CalendarEvent, error)
	ListConversations(ctx context.Context, courseID int64) ([]canvas.Conversation, error)
}

// Service orchestrates sync passes against the mirror store.
type Service struct {
	canvas CanvasAPI
	db     *sqlx.DB
	cfg    config.SyncConfig
	log    *zap.Logger

	terms         *repository.TermRepository
	courses       *repository.CourseRepository
	syllabi       *repository.SyllabusRepository
	assignments   *repository.AssignmentRepository
	modules       *repository.ModuleRepository
	announcements *repository.AnnouncementRepository
	conversations *repository.ConversationRepository
	calendar      *repository.CalendarRepository
}

// NewService wires a sync service onto the given client and store.
func NewService(api CanvasAPI, db *sqlx.DB, cfg config.SyncConfig, log *zap.Logger) *Service {
	return &Service{
		canvas:        api,
		db:            db,
		cfg:           cfg,
		log:           log,
		terms:         repository.NewTermRepository(db),
		courses:       repository.NewCourseRepository(db),
		syllabi:       repository.NewSyllabusRepository(db),
		assignments:   repository.NewAssignmentRepository(db),
		modules:       repository.NewModuleRepository(db),
		announcements: repository.NewAnnouncementRepository(db),
		conversations: repository.NewConversationRepository(db),
		calendar:      repository.NewCalendarRepository(db),
	}
}

// Options override the configured filtering policy for one pass.
// Zero values fall back to configuration defaults.
type Options struct {
	// Term is "latest", "all" or a Canvas enrollment term id.
	Term            string
	EnrollmentState string
}

func (s *Service) options(opts Options) Options {
	if opts.Term == "" {
		opts.Term = s.cfg.DefaultTerm
	}
	if opts.Term == "" {
		opts.Term = config.TermLatest
	}
	if opts.EnrollmentState == "" {
		opts.EnrollmentState = s.cfg.EnrollmentState
	}
	if opts.EnrollmentState == "" {
		opts.EnrollmentState = "active"
	}
	return opts
}
