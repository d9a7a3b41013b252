package models

import "time"

// Course is a mirrored Canvas course. CanvasCourseID is the idempotency
// key for upserts; TermID is nullable because Canvas courses may carry
// no enrollment term and term deletion sets the reference null.
type Course struct {
	ID             int64      `db:"id" json:"id"`
	CanvasCourseID int64      `db:"canvas_course_id" json:"canvas_course_id"`
	CourseCode     string     `db:"course_code" json:"course_code"`
	CourseName     string     `db:"course_name" json:"course_name"`
	Instructor     *string    `db:"instructor" json:"instructor,omitempty"`
	Description    *string    `db:"description" json:"description,omitempty"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	TermID         *int64     `db:"term_id" json:"term_id,omitempty"`
	SyllabusBody   *string    `db:"syllabus_body" json:"syllabus_body,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings on the read side.
type CourseFilter struct {
	TermID   *int64
	Search   string
	Page     int
	PageSize int
}
