package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// PreferenceRepository persists per-user course opt-out flags.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Upsert sets the opt-out flag for one (user, course) pair.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.UserCoursePreference) error {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &existing,
		`SELECT id, created_at FROM user_course_preferences WHERE user_id = ? AND course_id = ?`,
		pref.UserID, pref.CourseID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		pref.CreatedAt = now
		pref.UpdatedAt = now
		res, err := r.db.NamedExecContext(ctx, `INSERT INTO user_course_preferences
			(user_id, course_id, opted_out, created_at, updated_at)
			VALUES (:user_id, :course_id, :opted_out, :created_at, :updated_at)`, pref)
		if err != nil {
			return fmt.Errorf("insert preference: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("preference insert id: %w", err)
		}
		pref.ID = id
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup preference: %w", err)
	}

	pref.ID = existing.ID
	pref.CreatedAt = existing.CreatedAt
	pref.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, `UPDATE user_course_preferences
		SET opted_out = :opted_out, updated_at = :updated_at
		WHERE id = :id`, pref); err != nil {
		return fmt.Errorf("update preference: %w", err)
	}
	return nil
}

// Get loads the preference for one (user, course) pair.
func (r *PreferenceRepository) Get(ctx context.Context, userID string, courseID int64) (*models.UserCoursePreference, error) {
	var pref models.UserCoursePreference
	if err := r.db.GetContext(ctx, &pref,
		`SELECT * FROM user_course_preferences WHERE user_id = ? AND course_id = ?`,
		userID, courseID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListOptedOut returns the course ids a user opted out of.
func (r *PreferenceRepository) ListOptedOut(ctx context.Context, userID string) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT course_id FROM user_course_preferences WHERE user_id = ? AND opted_out = 1`,
		userID); err != nil {
		return nil, fmt.Errorf("list opted-out courses: %w", err)
	}
	return ids, nil
}
