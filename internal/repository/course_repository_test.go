package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestCourseUpsertInsertsWhenMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at FROM courses WHERE canvas_course_id = ?`)).
		WithArgs(int64(101)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO courses`).
		WillReturnResult(sqlmock.NewResult(5, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	course := &models.Course{CanvasCourseID: 101, CourseCode: "CS101", CourseName: "Algorithms"}
	created, err := repo.UpsertTx(context.Background(), tx, course)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, int64(5), course.ID)
	assert.False(t, course.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpsertUpdatesExisting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at FROM courses WHERE canvas_course_id = ?`)).
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))
	mock.ExpectExec(`UPDATE courses`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	course := &models.Course{CanvasCourseID: 101, CourseCode: "CS101", CourseName: "Algorithms v2"}
	created, err := repo.UpsertTx(context.Background(), tx, course)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, int64(7), course.ID)
	assert.Equal(t, createdAt, course.CreatedAt)
	assert.True(t, course.UpdatedAt.After(createdAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "canvas_course_id", "course_code", "course_name"}).
		AddRow(int64(1), int64(101), "CS101", "Algorithms")

	mock.ExpectQuery(`SELECT .+ FROM courses WHERE .+term_id = \?.+LIKE`).
		WithArgs(int64(30), "%algo%", "%algo%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses`).
		WithArgs(int64(30), "%algo%", "%algo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	term := int64(30)
	courses, total, err := repo.List(context.Background(), models.CourseFilter{
		TermID: &term,
		Search: "algo",
	})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByCanvasIDsNoopOnEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	n, err := repo.DeleteByCanvasIDs(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
