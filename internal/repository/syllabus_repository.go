package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// SyllabusRepository persists the one-per-course syllabus rows.
type SyllabusRepository struct {
	db *sqlx.DB
}

// NewSyllabusRepository creates the repository.
func NewSyllabusRepository(db *sqlx.DB) *SyllabusRepository {
	return &SyllabusRepository{db: db}
}

// UpsertTx writes the syllabus for a course. When the stored content
// changes, the extraction state resets so the parser revisits it;
// unchanged content keeps any previously parsed text.
func (r *SyllabusRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, syllabus *models.Syllabus) (bool, error) {
	var existing models.Syllabus
	err := tx.GetContext(ctx, &existing,
		`SELECT id, course_id, content, created_at FROM syllabi WHERE course_id = ?`, syllabus.CourseID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		syllabus.CreatedAt = now
		syllabus.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO syllabi
			(course_id, content, content_type, parsed_content, is_parsed, created_at, updated_at)
			VALUES (:course_id, :content, :content_type, :parsed_content, :is_parsed, :created_at, :updated_at)`,
			syllabus)
		if err != nil {
			return false, fmt.Errorf("insert syllabus: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("syllabus insert id: %w", err)
		}
		syllabus.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup syllabus: %w", err)
	}

	contentChanged := !equalContent(existing.Content, syllabus.Content)

	syllabus.ID = existing.ID
	syllabus.CreatedAt = existing.CreatedAt
	syllabus.UpdatedAt = now
	if contentChanged {
		syllabus.ParsedContent = nil
		syllabus.IsParsed = false
		if _, err := tx.NamedExecContext(ctx, `UPDATE syllabi
			SET content = :content, content_type = :content_type, parsed_content = :parsed_content,
			    is_parsed = :is_parsed, updated_at = :updated_at
			WHERE id = :id`, syllabus); err != nil {
			return false, fmt.Errorf("update syllabus: %w", err)
		}
		return false, nil
	}

	if _, err := tx.NamedExecContext(ctx, `UPDATE syllabi
		SET content_type = :content_type, updated_at = :updated_at
		WHERE id = :id`, syllabus); err != nil {
		return false, fmt.Errorf("update syllabus: %w", err)
	}
	return false, nil
}

// GetByCourse loads the syllabus for one course.
func (r *SyllabusRepository) GetByCourse(ctx context.Context, courseID int64) (*models.Syllabus, error) {
	var syllabus models.Syllabus
	if err := r.db.GetContext(ctx, &syllabus,
		`SELECT * FROM syllabi WHERE course_id = ?`, courseID); err != nil {
		return nil, err
	}
	return &syllabus, nil
}

// MarkParsed stores extracted text for a syllabus.
func (r *SyllabusRepository) MarkParsed(ctx context.Context, id int64, parsed string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE syllabi SET parsed_content = ?, is_parsed = 1, updated_at = ? WHERE id = ?`,
		parsed, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark syllabus parsed: %w", err)
	}
	return nil
}

func equalContent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
