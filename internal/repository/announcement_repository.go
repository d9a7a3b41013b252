package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// AnnouncementRepository persists course announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// UpsertTx inserts or updates an announcement keyed by
// (course_id, canvas_announcement_id) and fills in the local id.
func (r *AnnouncementRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, a *models.Announcement) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM announcements WHERE course_id = ? AND canvas_announcement_id = ?`,
		a.CourseID, a.CanvasAnnouncementID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		a.CreatedAt = now
		a.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO announcements
			(course_id, canvas_announcement_id, title, content, posted_by, posted_at, created_at, updated_at)
			VALUES (:course_id, :canvas_announcement_id, :title, :content, :posted_by, :posted_at, :created_at, :updated_at)`,
			a)
		if err != nil {
			return false, fmt.Errorf("insert announcement: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("announcement insert id: %w", err)
		}
		a.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup announcement: %w", err)
	}

	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE announcements
		SET title = :title, content = :content, posted_by = :posted_by,
		    posted_at = :posted_at, updated_at = :updated_at
		WHERE id = :id`, a); err != nil {
		return false, fmt.Errorf("update announcement: %w", err)
	}
	return false, nil
}

// ListByCourse returns announcements for a course, newest first, capped
// at limit when limit is positive.
func (r *AnnouncementRepository) ListByCourse(ctx context.Context, courseID int64, limit int) ([]models.Announcement, error) {
	query := `SELECT * FROM announcements WHERE course_id = ? ORDER BY posted_at DESC, id DESC`
	args := []interface{}{courseID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}
