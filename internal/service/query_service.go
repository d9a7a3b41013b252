package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/internal/repository"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// Mirror cache keys all share this prefix so one pattern wipes them
// after a sync pass.
const cacheKeyPrefix = "canvas:"

// ModuleWithItems bundles a module with its ordered items.
type ModuleWithItems struct {
	models.Module
	Items []models.ModuleItem `json:"items"`
}

// CourseMessages bundles the broadcast and private message feeds of a
// course for a single tool response.
type CourseMessages struct {
	Announcements []models.Announcement `json:"announcements"`
	Conversations []models.Conversation `json:"conversations"`
}

// QueryService serves tool queries from the mirror store.
type QueryService struct {
	courses       *repository.CourseRepository
	terms         *repository.TermRepository
	syllabi       *repository.SyllabusRepository
	assignments   *repository.AssignmentRepository
	modules       *repository.ModuleRepository
	announcements *repository.AnnouncementRepository
	conversations *repository.ConversationRepository
	calendar      *repository.CalendarRepository
	prefs         *repository.PreferenceRepository

	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	deadlinesDays int
}

// QueryRepos groups the repositories the query service reads from.
type QueryRepos struct {
	Courses       *repository.CourseRepository
	Terms         *repository.TermRepository
	Syllabi       *repository.SyllabusRepository
	Assignments   *repository.AssignmentRepository
	Modules       *repository.ModuleRepository
	Announcements *repository.AnnouncementRepository
	Conversations *repository.ConversationRepository
	Calendar      *repository.CalendarRepository
	Preferences   *repository.PreferenceRepository
}

// NewQueryService constructs the service.
func NewQueryService(repos QueryRepos, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, deadlinesDays int) *QueryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deadlinesDays <= 0 {
		deadlinesDays = 7
	}
	return &QueryService{
		courses:       repos.Courses,
		terms:         repos.Terms,
		syllabi:       repos.Syllabi,
		assignments:   repos.Assignments,
		modules:       repos.Modules,
		announcements: repos.Announcements,
		conversations: repos.Conversations,
		calendar:      repos.Calendar,
		prefs:         repos.Preferences,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		deadlinesDays: deadlinesDays,
	}
}

type courseListPage struct {
	Items []models.Course `json:"items"`
	Total int             `json:"total"`
}

// ListCourses returns mirrored courses with pagination.
func (s *QueryService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	key := fmt.Sprintf("%scourses:%v:%s:%d:%d",
		cacheKeyPrefix, filter.TermID, filter.Search, filter.Page, filter.PageSize)

	var page courseListPage
	if !s.cache.Get(ctx, key, &page) {
		start := time.Now()
		items, total, err := s.courses.List(ctx, filter)
		s.metrics.ObserveDBQuery("courses_list", time.Since(start))
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
				appErrors.ErrInternal.Status, "failed to list courses")
		}
		page = courseListPage{Items: items, Total: total}
		s.cache.Set(ctx, key, page)
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: page.Total}
	return page.Items, pagination, nil
}

// GetCourse returns one mirrored course by local id.
func (s *QueryService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to get course")
	}
	return course, nil
}

// CourseAssignments lists the assignments of one course.
func (s *QueryService) CourseAssignments(ctx context.Context, courseID int64, filter models.AssignmentFilter) ([]models.Assignment, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%sassignments:%d:%s:%v", cacheKeyPrefix, courseID, filter.Type, filter.DueAfter)
	var assignments []models.Assignment
	if s.cache.Get(ctx, key, &assignments) {
		return assignments, nil
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to list assignments")
	}
	s.cache.Set(ctx, key, assignments)
	return assignments, nil
}

// CourseModules lists the modules of one course with their items.
func (s *QueryService) CourseModules(ctx context.Context, courseID int64) ([]ModuleWithItems, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to list modules")
	}

	out := make([]ModuleWithItems, 0, len(modules))
	for _, module := range modules {
		items, err := s.modules.ListItems(ctx, module.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
				appErrors.ErrInternal.Status, "failed to list module items")
		}
		if items == nil {
			items = []models.ModuleItem{}
		}
		out = append(out, ModuleWithItems{Module: module, Items: items})
	}
	return out, nil
}

// CourseMessages lists the announcements and course-scoped
// conversations of one course, newest first.
func (s *QueryService) CourseMessages(ctx context.Context, courseID int64, limit int) (*CourseMessages, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	announcements, err := s.announcements.ListByCourse(ctx, courseID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to list announcements")
	}
	conversations, err := s.conversations.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to list conversations")
	}

	if announcements == nil {
		announcements = []models.Announcement{}
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	return &CourseMessages{Announcements: announcements, Conversations: conversations}, nil
}

// CourseSyllabus returns the syllabus of one course.
func (s *QueryService) CourseSyllabus(ctx context.Context, courseID int64) (*models.Syllabus, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	syllabus, err := s.syllabi.GetByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course has no syllabus")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to get syllabus")
	}
	return syllabus, nil
}

// UpcomingDeadlines lists events falling within the next N days across
// all courses. A non-empty userID drops events of courses the user
// opted out of.
func (s *QueryService) UpcomingDeadlines(ctx context.Context, days int, userID string) ([]models.UpcomingEvent, error) {
	if days <= 0 {
		days = s.deadlinesDays
	}
	now := time.Now().UTC()
	until := now.AddDate(0, 0, days)

	key := fmt.Sprintf("%sdeadlines:%d:%s", cacheKeyPrefix, days, userID)
	var cached []models.UpcomingEvent
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	events, err := s.calendar.ListUpcoming(ctx, now, until)
	s.metrics.ObserveDBQuery("deadlines_upcoming", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to list deadlines")
	}

	if userID != "" {
		optedOut, err := s.prefs.ListOptedOut(ctx, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
				appErrors.ErrInternal.Status, "failed to load preferences")
		}
		if len(optedOut) > 0 {
			hidden := make(map[int64]struct{}, len(optedOut))
			for _, id := range optedOut {
				hidden[id] = struct{}{}
			}
			filtered := events[:0]
			for _, e := range events {
				if _, ok := hidden[e.CourseID]; !ok {
					filtered = append(filtered, e)
				}
			}
			events = filtered
		}
	}

	if events == nil {
		events = []models.UpcomingEvent{}
	}
	s.cache.Set(ctx, key, events)
	return events, nil
}

// SetPreferenceRequest is the payload for the preference endpoint.
type SetPreferenceRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	CourseID int64  `json:"course_id" validate:"required"`
	OptedOut bool   `json:"opted_out"`
}

// SetCoursePreference stores a per-user opt-out flag for one course.
func (s *QueryService) SetCoursePreference(ctx context.Context, req SetPreferenceRequest) (*models.UserCoursePreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code,
			appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.GetCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	pref := &models.UserCoursePreference{
		UserID:   req.UserID,
		CourseID: req.CourseID,
		OptedOut: req.OptedOut,
	}
	if err := s.prefs.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to store preference")
	}
	s.cache.Invalidate(ctx, cacheKeyPrefix+"deadlines:*")
	return pref, nil
}

// GetCoursePreference returns the stored flag, defaulting to opted in
// when the user never set one.
func (s *QueryService) GetCoursePreference(ctx context.Context, userID string, courseID int64) (*models.UserCoursePreference, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	pref, err := s.prefs.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserCoursePreference{UserID: userID, CourseID: courseID, OptedOut: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to load preference")
	}
	return pref, nil
}

// InvalidateMirror drops every cached mirror read. Called after a sync
// pass so tools observe fresh rows.
func (s *QueryService) InvalidateMirror(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKeyPrefix+"*")
}
