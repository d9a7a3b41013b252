package models

import "time"

// SyllabusContentType tags how a syllabus body should be interpreted.
type SyllabusContentType string

const (
	SyllabusContentHTML         SyllabusContentType = "html"
	SyllabusContentPDFLink      SyllabusContentType = "pdf_link"
	SyllabusContentExternalLink SyllabusContentType = "external_link"
	SyllabusContentJSON         SyllabusContentType = "json"
)

// Syllabus stores the raw syllabus for one course plus extraction state.
// One row per course; cascade-deleted with the course.
type Syllabus struct {
	ID            int64               `db:"id" json:"id"`
	CourseID      int64               `db:"course_id" json:"course_id"`
	Content       *string             `db:"content" json:"content,omitempty"`
	ContentType   SyllabusContentType `db:"content_type" json:"content_type"`
	ParsedContent *string             `db:"parsed_content" json:"parsed_content,omitempty"`
	IsParsed      bool                `db:"is_parsed" json:"is_parsed"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}
