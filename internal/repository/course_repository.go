package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// CourseRepository provides persistence for mirrored courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, canvas_course_id, course_code, course_name, instructor, description,
start_date, end_date, term_id, syllabus_body, created_at, updated_at`

// UpsertTx inserts or updates a course keyed by canvas_course_id and
// fills in the local id. Lookup-then-write inside the caller's
// transaction keeps one sync pass free of duplicate inserts.
func (r *CourseRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, course *models.Course) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM courses WHERE canvas_course_id = ?`, course.CanvasCourseID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		course.CreatedAt = now
		course.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO courses
			(canvas_course_id, course_code, course_name, instructor, description,
			 start_date, end_date, term_id, syllabus_body, created_at, updated_at)
			VALUES (:canvas_course_id, :course_code, :course_name, :instructor, :description,
			 :start_date, :end_date, :term_id, :syllabus_body, :created_at, :updated_at)`, course)
		if err != nil {
			return false, fmt.Errorf("insert course: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("course insert id: %w", err)
		}
		course.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup course: %w", err)
	}

	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE courses
		SET course_code = :course_code, course_name = :course_name, instructor = :instructor,
		    description = :description, start_date = :start_date, end_date = :end_date,
		    term_id = :term_id, syllabus_body = :syllabus_body, updated_at = :updated_at
		WHERE id = :id`, course); err != nil {
		return false, fmt.Errorf("update course: %w", err)
	}
	return false, nil
}

// GetByID loads one course.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course,
		fmt.Sprintf(`SELECT %s FROM courses WHERE id = ?`, courseColumns), id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns mirrored courses matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.TermID != nil {
		where = append(where, "term_id = ?")
		args = append(args, *filter.TermID)
	}
	if filter.Search != "" {
		where = append(where, "(course_name LIKE ? OR course_code LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM courses WHERE %s ORDER BY course_name LIMIT %d OFFSET %d`,
		courseColumns, whereClause, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM courses WHERE %s`, whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListCanvasIDs returns the canvas_course_id of every mirrored course.
func (r *CourseRepository) ListCanvasIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT canvas_course_id FROM courses ORDER BY canvas_course_id`); err != nil {
		return nil, fmt.Errorf("list course canvas ids: %w", err)
	}
	return ids, nil
}

// DeleteByCanvasIDs removes courses by canvas id; children cascade.
// Only the explicit prune operation calls this, never the sync pass.
func (r *CourseRepository) DeleteByCanvasIDs(ctx context.Context, tx *sqlx.Tx, canvasIDs []int64) (int64, error) {
	if len(canvasIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM courses WHERE canvas_course_id IN (?)`, canvasIDs)
	if err != nil {
		return 0, fmt.Errorf("build course delete: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete courses: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
