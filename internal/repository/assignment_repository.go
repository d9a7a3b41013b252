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

// AssignmentRepository provides persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, course_id, canvas_assignment_id, name, title, description,
due_at, due_date, points_possible, assignment_type, submission_types, source_type,
available_from, available_until, created_at, updated_at`

// UpsertTx inserts or updates an assignment keyed by
// (course_id, canvas_assignment_id) and fills in the local id.
func (r *AssignmentRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, a *models.Assignment) (bool, error) {
	if a.CanvasAssignmentID == nil {
		return false, fmt.Errorf("assignment for course %d has no canvas id", a.CourseID)
	}

	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM assignments WHERE course_id = ? AND canvas_assignment_id = ?`,
		a.CourseID, *a.CanvasAssignmentID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		a.CreatedAt = now
		a.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO assignments
			(course_id, canvas_assignment_id, name, title, description, due_at, due_date,
			 points_possible, assignment_type, submission_types, source_type,
			 available_from, available_until, created_at, updated_at)
			VALUES (:course_id, :canvas_assignment_id, :name, :title, :description, :due_at, :due_date,
			 :points_possible, :assignment_type, :submission_types, :source_type,
			 :available_from, :available_until, :created_at, :updated_at)`, a)
		if err != nil {
			return false, fmt.Errorf("insert assignment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("assignment insert id: %w", err)
		}
		a.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup assignment: %w", err)
	}

	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE assignments
		SET name = :name, title = :title, description = :description, due_at = :due_at,
		    due_date = :due_date, points_possible = :points_possible,
		    assignment_type = :assignment_type, submission_types = :submission_types,
		    source_type = :source_type, available_from = :available_from,
		    available_until = :available_until, updated_at = :updated_at
		WHERE id = :id`, a); err != nil {
		return false, fmt.Errorf("update assignment: %w", err)
	}
	return false, nil
}

// ListByCourse returns the assignments for one course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID int64, filter models.AssignmentFilter) ([]models.Assignment, error) {
	where := []string{"course_id = ?"}
	args := []interface{}{courseID}

	if filter.Type != "" {
		where = append(where, "assignment_type = ?")
		args = append(args, filter.Type)
	}
	if filter.DueAfter != nil {
		where = append(where, "due_at >= ?")
		args = append(args, *filter.DueAfter)
	}

	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE %s ORDER BY due_at IS NULL, due_at`,
		assignmentColumns, strings.Join(where, " AND "))

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// CountByCourse returns the number of assignments mirrored for a course.
func (r *AssignmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM assignments WHERE course_id = ?`, courseID); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return count, nil
}
