package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema mirrors the Canvas entity graph. Parent tables precede children;
// every child carries ON DELETE CASCADE back to its owning course (or
// module), while a course keeps a nullable reference to its term.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		canvas_term_id INTEGER UNIQUE,
		name TEXT NOT NULL,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		canvas_course_id INTEGER UNIQUE,
		course_code TEXT,
		course_name TEXT NOT NULL,
		instructor TEXT,
		description TEXT,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		term_id INTEGER,
		syllabus_body TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (term_id) REFERENCES terms(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_course_name ON courses(course_name)`,
	`CREATE TABLE IF NOT EXISTS syllabi (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL UNIQUE,
		content TEXT,
		content_type TEXT DEFAULT 'html',
		parsed_content TEXT,
		is_parsed BOOLEAN DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		canvas_assignment_id INTEGER,
		name TEXT NOT NULL,
		title TEXT,
		description TEXT,
		due_at TIMESTAMP,
		due_date TIMESTAMP,
		points_possible REAL,
		assignment_type TEXT,
		submission_types TEXT,
		source_type TEXT,
		available_from TIMESTAMP,
		available_until TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_course_id ON assignments(course_id)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_due_at ON assignments(due_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_course_canvas
		ON assignments(course_id, canvas_assignment_id)
		WHERE canvas_assignment_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS modules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		canvas_module_id INTEGER,
		name TEXT NOT NULL,
		description TEXT,
		position INTEGER,
		unlock_date TIMESTAMP,
		require_sequential_progress BOOLEAN DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_modules_course_id ON modules(course_id)`,
	`CREATE TABLE IF NOT EXISTS module_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		module_id INTEGER NOT NULL,
		canvas_item_id INTEGER,
		title TEXT,
		position INTEGER,
		content_type TEXT,
		type TEXT,
		item_type TEXT,
		content_id INTEGER,
		url TEXT,
		page_url TEXT,
		content_details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (module_id) REFERENCES modules(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_module_items_module_id ON module_items(module_id)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		canvas_announcement_id INTEGER,
		title TEXT NOT NULL,
		content TEXT,
		posted_by TEXT,
		posted_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_course_id ON announcements(course_id)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_posted_at ON announcements(posted_at)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		canvas_conversation_id INTEGER,
		title TEXT NOT NULL,
		content TEXT,
		posted_by TEXT,
		posted_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_course_id ON conversations(course_id)`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		canvas_event_id INTEGER,
		title TEXT NOT NULL,
		description TEXT,
		event_type TEXT,
		source_type TEXT NOT NULL,
		source_id INTEGER NOT NULL,
		event_date TIMESTAMP,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		location_name TEXT,
		location_address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
		UNIQUE (course_id, source_type, source_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_event_date ON calendar_events(event_date)`,
	`CREATE TABLE IF NOT EXISTS user_course_preferences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		course_id INTEGER NOT NULL,
		opted_out BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
		UNIQUE (user_id, course_id)
	)`,
}

// Migrate applies the schema. Statements are idempotent so the function
// is safe to run on every startup.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
