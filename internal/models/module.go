package models

import "time"

// Module is an ordered content container within a course.
type Module struct {
	ID                        int64      `db:"id" json:"id"`
	CourseID                  int64      `db:"course_id" json:"course_id"`
	CanvasModuleID            int64      `db:"canvas_module_id" json:"canvas_module_id"`
	Name                      string     `db:"name" json:"name"`
	Description               *string    `db:"description" json:"description,omitempty"`
	Position                  *int       `db:"position" json:"position,omitempty"`
	UnlockDate                *time.Time `db:"unlock_date" json:"unlock_date,omitempty"`
	RequireSequentialProgress bool       `db:"require_sequential_progress" json:"require_sequential_progress"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
}

// ModuleItem is a single entry within a module. The content_type, type
// and item_type columns are legacy duplicates; ItemType is the single
// internal value and all three columns are written with it.
type ModuleItem struct {
	ID             int64     `db:"id" json:"id"`
	ModuleID       int64     `db:"module_id" json:"module_id"`
	CanvasItemID   int64     `db:"canvas_item_id" json:"canvas_item_id"`
	Title          *string   `db:"title" json:"title,omitempty"`
	Position       *int      `db:"position" json:"position,omitempty"`
	ContentType    *string   `db:"content_type" json:"content_type,omitempty"`
	Type           *string   `db:"type" json:"type,omitempty"`
	ItemType       *string   `db:"item_type" json:"item_type,omitempty"`
	ContentID      *int64    `db:"content_id" json:"content_id,omitempty"`
	URL            *string   `db:"url" json:"url,omitempty"`
	PageURL        *string   `db:"page_url" json:"page_url,omitempty"`
	ContentDetails *string   `db:"content_details" json:"content_details,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
