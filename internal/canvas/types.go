package canvas

// Raw payload shapes as returned by the Canvas REST API. Timestamps stay
// strings here; coercion into time values is the mapper layer's job.

// User is the authenticated Canvas user.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Enrollment is the caller's enrollment embedded in a course listing.
type Enrollment struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	State string `json:"enrollment_state"`
}

// Teacher is an instructor embedded in a detailed course payload.
type Teacher struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Term is the enrollment term embedded in a detailed course payload.
type Term struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

// Course is a course as listed or fetched. SyllabusBody, Term and
// Teachers are only populated on single-course fetches with includes.
type Course struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	CourseCode        string       `json:"course_code"`
	EnrollmentTermID  *int64       `json:"enrollment_term_id"`
	StartAt           string       `json:"start_at"`
	EndAt             string       `json:"end_at"`
	PublicDescription string       `json:"public_description"`
	SyllabusBody      string       `json:"syllabus_body"`
	Enrollments       []Enrollment `json:"enrollments"`
	Term              *Term        `json:"term"`
	Teachers          []Teacher    `json:"teachers"`
}

// Assignment is a raw Canvas assignment.
type Assignment struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DueAt           string   `json:"due_at"`
	UnlockAt        string   `json:"unlock_at"`
	LockAt          string   `json:"lock_at"`
	PointsPossible  *float64 `json:"points_possible"`
	SubmissionTypes []string `json:"submission_types"`
}

// Module is a raw Canvas module.
type Module struct {
	ID                        int64  `json:"id"`
	Name                      string `json:"name"`
	Position                  *int   `json:"position"`
	UnlockAt                  string `json:"unlock_at"`
	RequireSequentialProgress bool   `json:"require_sequential_progress"`
}

// ModuleItem is a raw entry within a module.
type ModuleItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Position    *int   `json:"position"`
	Type        string `json:"type"`
	ContentID   *int64 `json:"content_id"`
	ExternalURL string `json:"external_url"`
	PageURL     string `json:"page_url"`
	HTMLURL     string `json:"html_url"`
}

// Author is the poster embedded in a discussion topic.
type Author struct {
	DisplayName string `json:"display_name"`
}

// Announcement is a raw course announcement (a discussion topic with
// only_announcements=true).
type Announcement struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	PostedAt string `json:"posted_at"`
	Author   Author `json:"author"`
}

// CalendarEvent is a raw Canvas calendar event.
type CalendarEvent struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at"`
	LocationName    string `json:"location_name"`
	LocationAddress string `json:"location_address"`
}

// Participant is a conversation participant.
type Participant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Conversation is a raw inbox thread. ContextName carries the owning
// course's name; filtering per course uses context codes server-side.
type Conversation struct {
	ID            int64         `json:"id"`
	Subject       string        `json:"subject"`
	LastMessage   string        `json:"last_message"`
	LastMessageAt string        `json:"last_message_at"`
	ContextName   string        `json:"context_name"`
	Participants  []Participant `json:"participants"`
}
