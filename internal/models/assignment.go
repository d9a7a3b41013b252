package models

import "time"

// AssignmentType classifies an assignment for the query layer.
type AssignmentType string

const (
	AssignmentTypeAssignment AssignmentType = "assignment"
	AssignmentTypeQuiz       AssignmentType = "quiz"
	AssignmentTypeDiscussion AssignmentType = "discussion"
	AssignmentTypeExam       AssignmentType = "exam"
)

// Assignment is a mirrored Canvas assignment. Name/Title and
// DueAt/DueDate are alias column pairs kept identical for downstream
// readers; CanvasAssignmentID is nullable because some assignments are
// synthesized from non-Canvas sources.
type Assignment struct {
	ID                 int64          `db:"id" json:"id"`
	CourseID           int64          `db:"course_id" json:"course_id"`
	CanvasAssignmentID *int64         `db:"canvas_assignment_id" json:"canvas_assignment_id,omitempty"`
	Name               string         `db:"name" json:"name"`
	Title              string         `db:"title" json:"title"`
	Description        *string        `db:"description" json:"description,omitempty"`
	DueAt              *time.Time     `db:"due_at" json:"due_at,omitempty"`
	DueDate            *time.Time     `db:"due_date" json:"due_date,omitempty"`
	PointsPossible     *float64       `db:"points_possible" json:"points_possible,omitempty"`
	AssignmentType     AssignmentType `db:"assignment_type" json:"assignment_type"`
	SubmissionTypes    *string        `db:"submission_types" json:"submission_types,omitempty"`
	SourceType         *string        `db:"source_type" json:"source_type,omitempty"`
	AvailableFrom      *time.Time     `db:"available_from" json:"available_from,omitempty"`
	AvailableUntil     *time.Time     `db:"available_until" json:"available_until,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	Type     AssignmentType
	DueAfter *time.Time
	Page     int
	PageSize int
}
