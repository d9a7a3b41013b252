package models

import "time"

// Calendar event source types. Events either mirror a Canvas calendar
// entry or are derived from a due-dated assignment; SourceID points at
// the originating row.
const (
	CalendarSourceCalendar   = "calendar"
	CalendarSourceAssignment = "assignment"
)

// CalendarEvent is a dated entry for one course. EventDate is the
// unified sort key regardless of source.
type CalendarEvent struct {
	ID              int64      `db:"id" json:"id"`
	CourseID        int64      `db:"course_id" json:"course_id"`
	CanvasEventID   *int64     `db:"canvas_event_id" json:"canvas_event_id,omitempty"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	EventType       string     `db:"event_type" json:"event_type"`
	SourceType      string     `db:"source_type" json:"source_type"`
	SourceID        int64      `db:"source_id" json:"source_id"`
	EventDate       *time.Time `db:"event_date" json:"event_date,omitempty"`
	StartDate       *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time `db:"end_date" json:"end_date,omitempty"`
	LocationName    *string    `db:"location_name" json:"location_name,omitempty"`
	LocationAddress *string    `db:"location_address" json:"location_address,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// UpcomingEvent joins a calendar event with its course for deadline
// queries across courses.
type UpcomingEvent struct {
	CalendarEvent
	CourseName string `db:"course_name" json:"course_name"`
	CourseCode string `db:"course_code" json:"course_code"`
}
