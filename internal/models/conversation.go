package models

import "time"

// Conversation is a direct-message thread attributed to a course. Same
// shape as Announcement but private rather than broadcast.
type Conversation struct {
	ID                   int64      `db:"id" json:"id"`
	CourseID             int64      `db:"course_id" json:"course_id"`
	CanvasConversationID int64      `db:"canvas_conversation_id" json:"canvas_conversation_id"`
	Title                string     `db:"title" json:"title"`
	Content              *string    `db:"content" json:"content,omitempty"`
	PostedBy             *string    `db:"posted_by" json:"posted_by,omitempty"`
	PostedAt             *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}
