package sync

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/canvas"
	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/config"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

type fakeCanvas struct {
	user          canvas.User
	courses       []canvas.Course
	details       map[int64]*canvas.Course
	assignments   map[int64][]canvas.Assignment
	modules       map[int64][]canvas.Module
	items         map[int64][]canvas.ModuleItem
	announcements map[int64][]canvas.Announcement
	events        map[int64][]canvas.CalendarEvent
	conversations map[int64][]canvas.Conversation

	// enrollment state per course id, defaulting to "active"
	states map[int64]string

	failDetail      map[int64]error
	failAssignments map[int64]error
}

func (f *fakeCanvas) CurrentUser(ctx context.Context) (*canvas.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeCanvas) ListCourses(ctx context.Context, enrollmentState string) ([]canvas.Course, error) {
	if enrollmentState == "" {
		return f.courses, nil
	}
	var out []canvas.Course
	for _, c := range f.courses {
		state := f.states[c.ID]
		if state == "" {
			state = "active"
		}
		if state == enrollmentState {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCanvas) GetCourse(ctx context.Context, courseID int64) (*canvas.Course, error) {
	if err := f.failDetail[courseID]; err != nil {
		return nil, err
	}
	if detail, ok := f.details[courseID]; ok {
		d := *detail
		return &d, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "canvas resource not found")
}

func (f *fakeCanvas) ListAssignments(ctx context.Context, courseID int64) ([]canvas.Assignment, error) {
	if err := f.failAssignments[courseID]; err != nil {
		return nil, err
	}
	return f.assignments[courseID], nil
}

func (f *fakeCanvas) ListModules(ctx context.Context, courseID int64) ([]canvas.Module, error) {
	return f.modules[courseID], nil
}

func (f *fakeCanvas) ListModuleItems(ctx context.Context, courseID, moduleID int64) ([]canvas.ModuleItem, error) {
	return f.items[moduleID], nil
}

func (f *fakeCanvas) ListAnnouncements(ctx context.Context, courseID int64) ([]canvas.Announcement, error) {
	return f.announcements[courseID], nil
}

func (f *fakeCanvas) ListCalendarEvents(ctx context.Context, courseID int64) ([]canvas.CalendarEvent, error) {
	return f.events[courseID], nil
}

func (f *fakeCanvas) ListConversations(ctx context.Context, courseID int64) ([]canvas.Conversation, error) {
	return f.conversations[courseID], nil
}

func termID(id int64) *int64 { return &id }

func twoCoursesFixture() *fakeCanvas {
	spring := canvas.Term{ID: 30, Name: "Spring 2026", StartAt: "2026-01-10T00:00:00Z", EndAt: "2026-05-20T00:00:00Z"}
	fall := canvas.Term{ID: 20, Name: "Fall 2025", StartAt: "2025-08-20T00:00:00Z", EndAt: "2025-12-15T00:00:00Z"}

	algorithms := &canvas.Course{
		ID: 101, Name: "Algorithms", CourseCode: "CS101",
		EnrollmentTermID: termID(30), Term: &spring,
		SyllabusBody: "<h1>Plan</h1>",
		Teachers:     []canvas.Teacher{{ID: 5, DisplayName: "Dr. Reed"}},
	}
	databases := &canvas.Course{
		ID: 102, Name: "Databases", CourseCode: "CS102",
		EnrollmentTermID: termID(20), Term: &fall,
	}

	return &fakeCanvas{
		user: canvas.User{ID: 900, Name: "Student"},
		courses: []canvas.Course{
			{ID: 101, Name: "Algorithms", CourseCode: "CS101", EnrollmentTermID: termID(30)},
			{ID: 102, Name: "Databases", CourseCode: "CS102", EnrollmentTermID: termID(20)},
		},
		details: map[int64]*canvas.Course{101: algorithms, 102: databases},
		assignments: map[int64][]canvas.Assignment{
			101: {
				{ID: 1001, Name: "Problem Set 1", DueAt: "2026-04-01T23:59:00Z", SubmissionTypes: []string{"online_upload"}},
				{ID: 1002, Name: "Reading quiz", SubmissionTypes: []string{"online_quiz"}},
				{ID: 1003, Name: ""},
			},
			102: {
				{ID: 2001, Name: "Final Exam", DueAt: "2026-05-10T09:00:00Z"},
			},
		},
		modules: map[int64][]canvas.Module{
			101: {{ID: 501, Name: "Week 1", Position: intPtr(1)}},
		},
		items: map[int64][]canvas.ModuleItem{
			501: {
				{ID: 601, Title: "Intro video", Position: intPtr(1), Type: "ExternalUrl", ExternalURL: "https://example.edu/v"},
				{ID: 602, Title: "Notes", Position: intPtr(2), Type: "Page", PageURL: "week-1-notes"},
			},
		},
		announcements: map[int64][]canvas.Announcement{
			101: {{ID: 701, Title: "Welcome", Message: "<p>Hi</p>", PostedAt: "2026-01-11T08:00:00Z", Author: canvas.Author{DisplayName: "Dr. Reed"}}},
		},
		events: map[int64][]canvas.CalendarEvent{
			101: {{ID: 801, Title: "Lab session", StartAt: "2026-04-03T14:00:00Z", LocationName: "Room 12"}},
		},
		conversations: map[int64][]canvas.Conversation{
			101: {{
				ID: 901, Subject: "Grading question", LastMessage: "See rubric",
				LastMessageAt: "2026-02-01T12:00:00Z",
				Participants:  []canvas.Participant{{ID: 900, Name: "Student"}, {ID: 5, Name: "Dr. Reed"}},
			}},
		},
		failDetail:      map[int64]error{},
		failAssignments: map[int64]error{},
	}
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, api CanvasAPI, cfg config.SyncConfig) (*Service, *sqlx.DB) {
	t.Helper()
	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(api, db, cfg, zap.NewNop()), db
}

func TestSyncAllEndToEnd(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})
	ctx := context.Background()

	res, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.CourseIDs, 2)

	assert.Equal(t, 2, res.Counts[EntityCourse].Created)
	assert.Equal(t, 2, res.Counts[EntityTerm].Created)
	assert.Equal(t, 1, res.Counts[EntitySyllabus].Created)
	assert.Equal(t, 3, res.Counts[EntityAssignment].Created)
	assert.Equal(t, 1, res.Counts[EntityAssignment].Skipped)
	assert.Equal(t, 1, res.Counts[EntityModule].Created)
	assert.Equal(t, 2, res.Counts[EntityModuleItem].Created)
	assert.Equal(t, 1, res.Counts[EntityAnnouncement].Created)
	assert.Equal(t, 1, res.Counts[EntityConversation].Created)
	// one Canvas calendar entry plus two derived due-date events
	assert.Equal(t, 3, res.Counts[EntityCalendar].Created)

	var derived int
	require.NoError(t, db.Get(&derived,
		`SELECT COUNT(*) FROM calendar_events WHERE source_type = 'assignment'`))
	assert.Equal(t, 2, derived)

	var instructor string
	require.NoError(t, db.Get(&instructor,
		`SELECT instructor FROM courses WHERE canvas_course_id = 101`))
	assert.Equal(t, "Dr. Reed", instructor)

	var postedBy string
	require.NoError(t, db.Get(&postedBy,
		`SELECT posted_by FROM conversations WHERE canvas_conversation_id = 901`))
	assert.Equal(t, "Dr. Reed", postedBy)

	// quiz classification flows from submission types into the row
	var quizType string
	require.NoError(t, db.Get(&quizType,
		`SELECT assignment_type FROM assignments WHERE canvas_assignment_id = 1002`))
	assert.Equal(t, "quiz", quizType)

	// alias pairs written identically
	var mismatched int
	require.NoError(t, db.Get(&mismatched,
		`SELECT COUNT(*) FROM assignments WHERE name != title OR (due_at IS NOT NULL AND due_at != due_date)`))
	assert.Zero(t, mismatched)
}

func TestSyncAllIsIdempotent(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})
	ctx := context.Background()

	_, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)

	type row struct {
		ID        int64  `db:"id"`
		CreatedAt string `db:"created_at"`
	}
	var before row
	require.NoError(t, db.Get(&before,
		`SELECT id, created_at FROM courses WHERE canvas_course_id = 101`))

	res, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Zero(t, res.Counts[EntityCourse].Created)
	assert.Equal(t, 2, res.Counts[EntityCourse].Updated)
	assert.Zero(t, res.Counts[EntityAssignment].Created)
	assert.Zero(t, res.Counts[EntityCalendar].Created)

	var after row
	require.NoError(t, db.Get(&after,
		`SELECT id, created_at FROM courses WHERE canvas_course_id = 101`))
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	var courseCount int
	require.NoError(t, db.Get(&courseCount, `SELECT COUNT(*) FROM courses`))
	assert.Equal(t, 2, courseCount)
}

func TestSyncLatestTermOnly(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	res, err := svc.SyncAll(context.Background(), Options{Term: config.TermLatest})
	require.NoError(t, err)
	require.Len(t, res.CourseIDs, 1)

	var code string
	require.NoError(t, db.Get(&code, `SELECT course_code FROM courses`))
	assert.Equal(t, "CS101", code)
}

func TestSyncExplicitTerm(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	res, err := svc.SyncAll(context.Background(), Options{Term: "20"})
	require.NoError(t, err)
	require.Len(t, res.CourseIDs, 1)

	var code string
	require.NoError(t, db.Get(&code, `SELECT course_code FROM courses`))
	assert.Equal(t, "CS102", code)
}

func TestSyncUnknownTermYieldsNothing(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	res, err := svc.SyncAll(context.Background(), Options{Term: "9999"})
	require.NoError(t, err)
	assert.Empty(t, res.CourseIDs)
	assert.Empty(t, res.Errors)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM courses`))
	assert.Zero(t, count)
}

func TestSyncInvalidTermRejected(t *testing.T) {
	svc, _ := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	_, err := svc.SyncAll(context.Background(), Options{Term: "spring"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEntityFailureDoesNotAbortPass(t *testing.T) {
	fake := twoCoursesFixture()
	fake.failAssignments[101] = appErrors.Clone(appErrors.ErrRateLimited, "")
	svc, db := newTestService(t, fake, config.SyncConfig{})

	res, err := svc.SyncAll(context.Background(), Options{Term: config.TermAll})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, int64(101), res.Errors[0].CanvasCourseID)
	assert.Equal(t, EntityAssignment, res.Errors[0].Entity)
	assert.True(t, res.Errors[0].Retryable)

	// the other course's assignments landed regardless
	var count int
	require.NoError(t, db.Get(&count,
		`SELECT COUNT(*) FROM assignments a JOIN courses c ON c.id = a.course_id WHERE c.canvas_course_id = 102`))
	assert.Equal(t, 1, count)

	// the failed course itself still synced
	assert.Len(t, res.CourseIDs, 2)
}

func TestCourseFetchFailureIsolated(t *testing.T) {
	fake := twoCoursesFixture()
	fake.failDetail[101] = appErrors.Clone(appErrors.ErrUnauthorized, "canvas rejected credentials")
	svc, db := newTestService(t, fake, config.SyncConfig{})

	res, err := svc.SyncAll(context.Background(), Options{Term: config.TermAll})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, EntityCourse, res.Errors[0].Entity)
	assert.False(t, res.Errors[0].Retryable)
	assert.Len(t, res.CourseIDs, 1)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM courses`))
	assert.Equal(t, 1, count)
}

func TestPruneRequiresOptIn(t *testing.T) {
	svc, _ := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	_, err := svc.PruneCourses(context.Background(), Options{Term: config.TermAll})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSyncDisabled.Code, appErrors.FromError(err).Code)
}

func TestPruneDeletesStaleCoursesAndCascades(t *testing.T) {
	fake := twoCoursesFixture()
	svc, db := newTestService(t, fake, config.SyncConfig{EnablePrune: true})
	ctx := context.Background()

	_, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)

	// upstream no longer lists the Algorithms course
	fake.courses = fake.courses[1:]

	pruned, err := svc.PruneCourses(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, pruned)

	var courseCount int
	require.NoError(t, db.Get(&courseCount, `SELECT COUNT(*) FROM courses`))
	assert.Equal(t, 1, courseCount)

	// children of the deleted course cascade away
	var orphanModules int
	require.NoError(t, db.Get(&orphanModules, `SELECT COUNT(*) FROM modules`))
	assert.Zero(t, orphanModules)

	var orphanItems int
	require.NoError(t, db.Get(&orphanItems, `SELECT COUNT(*) FROM module_items`))
	assert.Zero(t, orphanItems)

	// terms survive pruning
	var termCount int
	require.NoError(t, db.Get(&termCount, `SELECT COUNT(*) FROM terms`))
	assert.Equal(t, 2, termCount)
}

func TestSyncNeverDeletes(t *testing.T) {
	fake := twoCoursesFixture()
	svc, db := newTestService(t, fake, config.SyncConfig{})
	ctx := context.Background()

	_, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)

	fake.courses = fake.courses[1:]
	_, err = svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM courses`))
	assert.Equal(t, 2, count)
}

func TestSyncEntitySingleCourse(t *testing.T) {
	fake := twoCoursesFixture()
	svc, db := newTestService(t, fake, config.SyncConfig{})
	ctx := context.Background()

	_, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)

	var course models.Course
	require.NoError(t, db.Get(&course,
		`SELECT id, canvas_course_id FROM courses WHERE canvas_course_id = 101`))

	fake.assignments[101] = append(fake.assignments[101],
		canvas.Assignment{ID: 1004, Name: "Problem Set 2", DueAt: "2026-04-15T23:59:00Z"})

	res, err := svc.SyncEntity(ctx, course, EntityAssignment)
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, 1, res.Counts[EntityAssignment].Created)
	assert.Equal(t, 2, res.Counts[EntityAssignment].Updated)
	assert.Equal(t, 1, res.Counts[EntityAssignment].Skipped)
	// the new due date derives one event, the existing one updates
	assert.Equal(t, 1, res.Counts[EntityCalendar].Created)
	assert.Equal(t, 1, res.Counts[EntityCalendar].Updated)

	// the other course is untouched
	var other int
	require.NoError(t, db.Get(&other,
		`SELECT COUNT(*) FROM assignments WHERE course_id != ?`, course.ID))
	assert.Equal(t, 1, other)
}

func TestSyncEntityRejectsUnknownLabel(t *testing.T) {
	svc, _ := newTestService(t, twoCoursesFixture(), config.SyncConfig{})

	_, err := svc.SyncEntity(context.Background(), models.Course{ID: 1, CanvasCourseID: 101}, "grade")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSyncCoursesOnlySkipsChildEntities(t *testing.T) {
	svc, db := newTestService(t, twoCoursesFixture(), config.SyncConfig{})
	ctx := context.Background()

	res, err := svc.SyncCourses(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Len(t, res.CourseIDs, 2)

	assert.Equal(t, 2, res.Counts[EntityCourse].Created)
	assert.Equal(t, 2, res.Counts[EntityTerm].Created)
	assert.Equal(t, 1, res.Counts[EntitySyllabus].Created)
	assert.NotContains(t, res.Counts, EntityAssignment)
	assert.NotContains(t, res.Counts, EntityModule)

	var assignments int
	require.NoError(t, db.Get(&assignments, `SELECT COUNT(*) FROM assignments`))
	assert.Zero(t, assignments)
}

func TestSyncDefaultsToActiveEnrollments(t *testing.T) {
	fake := twoCoursesFixture()
	fake.states = map[int64]string{102: "completed"}
	svc, db := newTestService(t, fake, config.SyncConfig{})
	ctx := context.Background()

	// default policy mirrors active enrollments only
	res, err := svc.SyncAll(ctx, Options{Term: config.TermAll})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Counts[EntityCourse].Created)

	var codes []string
	require.NoError(t, db.Select(&codes, `SELECT course_code FROM courses ORDER BY course_code`))
	assert.Equal(t, []string{"CS101"}, codes)

	// an explicit state override reaches the completed course
	res, err = svc.SyncAll(ctx, Options{Term: config.TermAll, EnrollmentState: "completed"})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Counts[EntityCourse].Created)

	codes = nil
	require.NoError(t, db.Select(&codes, `SELECT course_code FROM courses ORDER BY course_code`))
	assert.Equal(t, []string{"CS101", "CS102"}, codes)
}
