package models

import "time"

// Term models an academic period mirrored from Canvas. Terms are
// upserted during course sync and never deleted by the sync process.
type Term struct {
	ID           int64      `db:"id" json:"id"`
	CanvasTermID int64      `db:"canvas_term_id" json:"canvas_term_id"`
	Name         string     `db:"name" json:"name"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
