package models

import "time"

// UserCoursePreference records a per-user opt-out flag for one course.
// Created on first write, updated thereafter, never auto-deleted.
type UserCoursePreference struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	OptedOut  bool      `db:"opted_out" json:"opted_out"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
