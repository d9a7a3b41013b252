// Package mapper converts raw Canvas payloads into local records. All
// functions are pure: validation failures come back as *FieldError,
// recoverable oddities (malformed timestamps) as warnings for the
// caller to log, and no I/O happens here.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/canvas-sync-api/internal/canvas"
	"github.com/noah-isme/canvas-sync-api/internal/models"
)

// FieldError names the raw field that made a record unusable.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Timestamp parses a Canvas timestamp. Empty input is a legitimate null;
// a non-empty string that fails to parse also maps to nil but reports
// ok=false so the caller can log it. A bad date never sinks a record.
func Timestamp(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	utc := t.UTC()
	return &utc, true
}

func timestampWarn(raw, field string, warns *[]string) *time.Time {
	t, ok := Timestamp(raw)
	if !ok {
		*warns = append(*warns, fmt.Sprintf("unparseable %s %q", field, raw))
	}
	return t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Term maps an embedded enrollment term.
func Term(raw canvas.Term) (*models.Term, []string, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, nil, &FieldError{Field: "name", Reason: "required"}
	}

	var warns []string
	return &models.Term{
		CanvasTermID: raw.ID,
		Name:         raw.Name,
		StartDate:    timestampWarn(raw.StartAt, "start_at", &warns),
		EndDate:      timestampWarn(raw.EndAt, "end_at", &warns),
	}, warns, nil
}

// Course maps a detailed course payload. termID is the local term row
// the course belongs to, nil when Canvas reported no term.
func Course(raw *canvas.Course, termID *int64) (*models.Course, []string, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, nil, &FieldError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(raw.CourseCode) == "" {
		return nil, nil, &FieldError{Field: "course_code", Reason: "required"}
	}

	var warns []string
	course := &models.Course{
		CanvasCourseID: raw.ID,
		CourseCode:     raw.CourseCode,
		CourseName:     raw.Name,
		Description:    optional(raw.PublicDescription),
		StartDate:      timestampWarn(raw.StartAt, "start_at", &warns),
		EndDate:        timestampWarn(raw.EndAt, "end_at", &warns),
		TermID:         termID,
		SyllabusBody:   optional(raw.SyllabusBody),
	}
	if len(raw.Teachers) > 0 && raw.Teachers[0].DisplayName != "" {
		course.Instructor = &raw.Teachers[0].DisplayName
	}
	return course, warns, nil
}

// Syllabus builds the syllabus row for a course body, detecting how the
// content should later be extracted.
func Syllabus(courseID int64, body string) *models.Syllabus {
	return &models.Syllabus{
		CourseID:    courseID,
		Content:     optional(body),
		ContentType: DetectContentType(body),
	}
}

// Assignment maps a raw assignment, populating both halves of the
// name/title and due_at/due_date alias pairs.
func Assignment(courseID int64, raw canvas.Assignment) (*models.Assignment, []string, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, nil, &FieldError{Field: "name", Reason: "required"}
	}

	var warns []string
	due := timestampWarn(raw.DueAt, "due_at", &warns)

	var submissionTypes *string
	if len(raw.SubmissionTypes) > 0 {
		joined := strings.Join(raw.SubmissionTypes, ",")
		submissionTypes = &joined
	}

	canvasID := raw.ID
	source := "canvas"
	return &models.Assignment{
		CourseID:           courseID,
		CanvasAssignmentID: &canvasID,
		Name:               raw.Name,
		Title:              raw.Name,
		Description:        optional(raw.Description),
		DueAt:              due,
		DueDate:            due,
		PointsPossible:     raw.PointsPossible,
		AssignmentType:     DeriveAssignmentType(raw.Name, raw.SubmissionTypes),
		SubmissionTypes:    submissionTypes,
		SourceType:         &source,
		AvailableFrom:      timestampWarn(raw.UnlockAt, "unlock_at", &warns),
		AvailableUntil:     timestampWarn(raw.LockAt, "lock_at", &warns),
	}, warns, nil
}

// Module maps a raw module.
func Module(courseID int64, raw canvas.Module) (*models.Module, []string, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, nil, &FieldError{Field: "name", Reason: "required"}
	}

	var warns []string
	return &models.Module{
		CourseID:                  courseID,
		CanvasModuleID:            raw.ID,
		Name:                      raw.Name,
		Position:                  raw.Position,
		UnlockDate:                timestampWarn(raw.UnlockAt, "unlock_at", &warns),
		RequireSequentialProgress: raw.RequireSequentialProgress,
	}, warns, nil
}

// ModuleItem maps a raw module item. The single item type value feeds
// all three legacy tag columns.
func ModuleItem(moduleID int64, raw canvas.ModuleItem) (*models.ModuleItem, []string, error) {
	itemType := optional(raw.Type)
	return &models.ModuleItem{
		ModuleID:     moduleID,
		CanvasItemID: raw.ID,
		Title:        optional(raw.Title),
		Position:     raw.Position,
		ContentType:  itemType,
		Type:         itemType,
		ItemType:     itemType,
		ContentID:    raw.ContentID,
		URL:          optional(raw.ExternalURL),
		PageURL:      optional(raw.PageURL),
	}, nil, nil
}

// Announcement maps a raw course announcement.
func Announcement(courseID int64, raw canvas.Announcement) (*models.Announcement, []string, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return nil, nil, &FieldError{Field: "title", Reason: "required"}
	}

	var warns []string
	return &models.Announcement{
		CourseID:             courseID,
		CanvasAnnouncementID: raw.ID,
		Title:                raw.Title,
		Content:              optional(raw.Message),
		PostedBy:             optional(raw.Author.DisplayName),
		PostedAt:             timestampWarn(raw.PostedAt, "posted_at", &warns),
	}, warns, nil
}

// Conversation maps a raw inbox thread onto the announcement-shaped
// conversation row. The first participant other than the current user
// is treated as the author when present.
func Conversation(courseID, selfUserID int64, raw canvas.Conversation) (*models.Conversation, []string, error) {
	if strings.TrimSpace(raw.Subject) == "" {
		return nil, nil, &FieldError{Field: "subject", Reason: "required"}
	}

	var warns []string
	conv := &models.Conversation{
		CourseID:             courseID,
		CanvasConversationID: raw.ID,
		Title:                raw.Subject,
		Content:              optional(raw.LastMessage),
		PostedAt:             timestampWarn(raw.LastMessageAt, "last_message_at", &warns),
	}
	for _, p := range raw.Participants {
		if p.ID != selfUserID && p.Name != "" {
			conv.PostedBy = &p.Name
			break
		}
	}
	return conv, warns, nil
}

// CalendarEvent maps a raw calendar event. EventDate mirrors the start
// timestamp so mixed-source events sort on one column.
func CalendarEvent(courseID int64, raw canvas.CalendarEvent) (*models.CalendarEvent, []string, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return nil, nil, &FieldError{Field: "title", Reason: "required"}
	}

	var warns []string
	start := timestampWarn(raw.StartAt, "start_at", &warns)

	canvasID := raw.ID
	return &models.CalendarEvent{
		CourseID:        courseID,
		CanvasEventID:   &canvasID,
		Title:           raw.Title,
		Description:     optional(raw.Description),
		EventType:       "event",
		SourceType:      models.CalendarSourceCalendar,
		SourceID:        raw.ID,
		EventDate:       start,
		StartDate:       start,
		EndDate:         timestampWarn(raw.EndAt, "end_at", &warns),
		LocationName:    optional(raw.LocationName),
		LocationAddress: optional(raw.LocationAddress),
	}, warns, nil
}

// AssignmentEvent derives the calendar row for a due-dated assignment.
// Returns nil when the assignment has no due date.
func AssignmentEvent(a *models.Assignment) *models.CalendarEvent {
	if a.DueDate == nil {
		return nil
	}
	desc := "Due date for assignment: " + a.Title
	return &models.CalendarEvent{
		CourseID:    a.CourseID,
		Title:       a.Title,
		Description: &desc,
		EventType:   string(a.AssignmentType),
		SourceType:  models.CalendarSourceAssignment,
		SourceID:    a.ID,
		EventDate:   a.DueDate,
		StartDate:   a.DueDate,
	}
}

// DeriveAssignmentType classifies an assignment from its submission
// types and name, mirroring how the tool layer buckets work items.
func DeriveAssignmentType(name string, submissionTypes []string) models.AssignmentType {
	for _, st := range submissionTypes {
		switch st {
		case "online_quiz":
			return models.AssignmentTypeQuiz
		case "discussion_topic":
			return models.AssignmentTypeDiscussion
		}
	}

	lower := strings.ToLower(name)
	for _, marker := range []string{"exam", "midterm", "final"} {
		if strings.Contains(lower, marker) {
			return models.AssignmentTypeExam
		}
	}
	return models.AssignmentTypeAssignment
}

// DetectContentType inspects a syllabus body and tags how it should be
// handled by the extraction pipeline.
func DetectContentType(body string) models.SyllabusContentType {
	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.Contains(lower, ".pdf") &&
		(strings.Contains(lower, "<a href=") || strings.Contains(lower, "src=")):
		return models.SyllabusContentPDFLink
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		if strings.HasSuffix(lower, ".pdf") {
			return models.SyllabusContentPDFLink
		}
		return models.SyllabusContentExternalLink
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"):
		return models.SyllabusContentJSON
	default:
		return models.SyllabusContentHTML
	}
}
