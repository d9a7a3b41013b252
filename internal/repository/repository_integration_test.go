package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/pkg/database"
)

func newMemoryDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCourse(t *testing.T, db *sqlx.DB, canvasID int64, code string) *models.Course {
	t.Helper()
	course := &models.Course{CanvasCourseID: canvasID, CourseCode: code, CourseName: code + " course"}
	require.NoError(t, database.WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := NewCourseRepository(db).UpsertTx(context.Background(), tx, course)
		return err
	}))
	return course
}

func TestSyllabusContentChangeResetsParseState(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	course := seedCourse(t, db, 101, "CS101")
	repo := NewSyllabusRepository(db)

	body := "<h1>v1</h1>"
	syllabus := &models.Syllabus{CourseID: course.ID, Content: &body, ContentType: models.SyllabusContentHTML}
	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := repo.UpsertTx(ctx, tx, syllabus)
		return err
	}))
	require.NoError(t, repo.MarkParsed(ctx, syllabus.ID, "plan text"))

	// unchanged content keeps the parsed text
	same := &models.Syllabus{CourseID: course.ID, Content: &body, ContentType: models.SyllabusContentHTML}
	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := repo.UpsertTx(ctx, tx, same)
		return err
	}))
	got, err := repo.GetByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, got.IsParsed)
	require.NotNil(t, got.ParsedContent)

	// changed content resets extraction state
	body2 := "<h1>v2</h1>"
	changed := &models.Syllabus{CourseID: course.ID, Content: &body2, ContentType: models.SyllabusContentHTML}
	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := repo.UpsertTx(ctx, tx, changed)
		return err
	}))
	got, err = repo.GetByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, got.IsParsed)
	assert.Nil(t, got.ParsedContent)
	assert.Equal(t, syllabus.ID, got.ID)
}

func TestCalendarListUpcomingJoinsCourses(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	course := seedCourse(t, db, 101, "CS101")
	repo := NewCalendarRepository(db)

	now := time.Now().UTC()
	soon := now.Add(48 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	for i, eventDate := range []time.Time{soon, far, past} {
		d := eventDate
		event := &models.CalendarEvent{
			CourseID:   course.ID,
			Title:      "Event",
			EventType:  "event",
			SourceType: models.CalendarSourceCalendar,
			SourceID:   int64(i + 1),
			EventDate:  &d,
		}
		require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
			_, err := repo.UpsertTx(ctx, tx, event)
			return err
		}))
	}

	events, err := repo.ListUpcoming(ctx, now, now.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "CS101 course", events[0].CourseName)
	assert.Equal(t, "CS101", events[0].CourseCode)
}

func TestCalendarUpsertKeyedBySource(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	course := seedCourse(t, db, 101, "CS101")
	repo := NewCalendarRepository(db)

	when := time.Now().UTC().Add(time.Hour)
	write := func(sourceType string, sourceID int64, title string) *models.CalendarEvent {
		event := &models.CalendarEvent{
			CourseID:   course.ID,
			Title:      title,
			EventType:  "event",
			SourceType: sourceType,
			SourceID:   sourceID,
			EventDate:  &when,
		}
		require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
			_, err := repo.UpsertTx(ctx, tx, event)
			return err
		}))
		return event
	}

	first := write(models.CalendarSourceCalendar, 1, "From calendar")
	// same source id under a different source type is a distinct row
	write(models.CalendarSourceAssignment, 1, "From assignment")
	// same key again updates in place
	again := write(models.CalendarSourceCalendar, 1, "From calendar v2")

	assert.Equal(t, first.ID, again.ID)

	events, err := repo.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestPreferenceUpsertAndDefault(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	course := seedCourse(t, db, 101, "CS101")
	repo := NewPreferenceRepository(db)

	_, err := repo.Get(ctx, "u-1", course.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	pref := &models.UserCoursePreference{UserID: "u-1", CourseID: course.ID, OptedOut: true}
	require.NoError(t, repo.Upsert(ctx, pref))
	firstID := pref.ID

	got, err := repo.Get(ctx, "u-1", course.ID)
	require.NoError(t, err)
	assert.True(t, got.OptedOut)

	optedOut, err := repo.ListOptedOut(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{course.ID}, optedOut)

	pref2 := &models.UserCoursePreference{UserID: "u-1", CourseID: course.ID, OptedOut: false}
	require.NoError(t, repo.Upsert(ctx, pref2))
	assert.Equal(t, firstID, pref2.ID)

	optedOut, err = repo.ListOptedOut(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, optedOut)
}

func TestDeletingCourseKeepsTerm(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	terms := NewTermRepository(db)
	courses := NewCourseRepository(db)

	term := &models.Term{CanvasTermID: 30, Name: "Spring 2026"}
	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := terms.UpsertTx(ctx, tx, term); err != nil {
			return err
		}
		course := &models.Course{CanvasCourseID: 101, CourseCode: "CS101", CourseName: "Algorithms", TermID: &term.ID}
		_, err := courses.UpsertTx(ctx, tx, course)
		return err
	}))

	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		n, err := courses.DeleteByCanvasIDs(ctx, tx, []int64{101})
		assert.Equal(t, int64(1), n)
		return err
	}))

	kept, err := terms.FindByCanvasID(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, "Spring 2026", kept.Name)
}
