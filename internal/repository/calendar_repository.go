package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// CalendarRepository persists calendar events from both sources.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository creates the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// UpsertTx inserts or updates an event keyed by
// (course_id, source_type, source_id) and fills in the local id.
func (r *CalendarRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, e *models.CalendarEvent) (bool, error) {
	var existing struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := tx.GetContext(ctx, &existing,
		`SELECT id, created_at FROM calendar_events WHERE course_id = ? AND source_type = ? AND source_id = ?`,
		e.CourseID, e.SourceType, e.SourceID)

	now := time.Now().UTC()
	if err == sql.ErrNoRows {
		e.CreatedAt = now
		e.UpdatedAt = now
		res, err := tx.NamedExecContext(ctx, `INSERT INTO calendar_events
			(course_id, canvas_event_id, title, description, event_type, source_type, source_id,
			 event_date, start_date, end_date, location_name, location_address, created_at, updated_at)
			VALUES (:course_id, :canvas_event_id, :title, :description, :event_type, :source_type, :source_id,
			 :event_date, :start_date, :end_date, :location_name, :location_address, :created_at, :updated_at)`,
			e)
		if err != nil {
			return false, fmt.Errorf("insert calendar event: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("calendar event insert id: %w", err)
		}
		e.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup calendar event: %w", err)
	}

	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, `UPDATE calendar_events
		SET canvas_event_id = :canvas_event_id, title = :title, description = :description,
		    event_type = :event_type, event_date = :event_date, start_date = :start_date,
		    end_date = :end_date, location_name = :location_name,
		    location_address = :location_address, updated_at = :updated_at
		WHERE id = :id`, e); err != nil {
		return false, fmt.Errorf("update calendar event: %w", err)
	}
	return false, nil
}

// ListByCourse returns every event for one course in date order.
func (r *CalendarRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM calendar_events WHERE course_id = ? ORDER BY event_date IS NULL, event_date, id`,
		courseID); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// ListUpcoming joins events with their course and returns everything
// falling between from and until, earliest first.
func (r *CalendarRepository) ListUpcoming(ctx context.Context, from, until time.Time) ([]models.UpcomingEvent, error) {
	var events []models.UpcomingEvent
	if err := r.db.SelectContext(ctx, &events,
		`SELECT e.*, c.course_name, c.course_code
		 FROM calendar_events e
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.event_date IS NOT NULL AND e.event_date >= ? AND e.event_date <= ?
		 ORDER BY e.event_date, e.id`,
		from, until); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}
