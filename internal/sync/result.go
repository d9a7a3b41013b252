package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
)

// Entity labels used in run results and logs.
const (
	EntityTerm         = "term"
	EntityCourse       = "course"
	EntitySyllabus     = "syllabus"
	EntityAssignment   = "assignment"
	EntityModule       = "module"
	EntityModuleItem   = "module_item"
	EntityAnnouncement = "announcement"
	EntityConversation = "conversation"
	EntityCalendar     = "calendar_event"
)

// EntityCount tallies the outcome of upserts for one entity type.
// Skipped counts records dropped by validation.
type EntityCount struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func (c *EntityCount) add(created bool) {
	if created {
		c.Created++
	} else {
		c.Updated++
	}
}

func (c *EntityCount) merge(other EntityCount) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Skipped += other.Skipped
}

// SyncError is one isolated failure recorded during a pass.
type SyncError struct {
	CanvasCourseID int64  `json:"canvas_course_id,omitempty"`
	Entity         string `json:"entity"`
	Message        string `json:"message"`
	Retryable      bool   `json:"retryable"`
}

// Result summarises one sync pass. Errors never abort a pass; callers
// inspect them to decide whether a retry is worthwhile.
type Result struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	CourseIDs  []int64                 `json:"course_ids"`
	Counts     map[string]*EntityCount `json:"counts"`
	Errors     []SyncError             `json:"errors"`
	Warnings   []string                `json:"warnings,omitempty"`

	mu sync.Mutex
}

func newResult() *Result {
	return &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		CourseIDs: []int64{},
		Counts:    map[string]*EntityCount{},
		Errors:    []SyncError{},
	}
}

func (r *Result) count(entity string) *EntityCount {
	c, ok := r.Counts[entity]
	if !ok {
		c = &EntityCount{}
		r.Counts[entity] = c
	}
	return c
}

func (r *Result) record(entity string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count(entity).add(created)
}

func (r *Result) mergeCount(entity string, count EntityCount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count(entity).merge(count)
}

func (r *Result) addError(canvasCourseID int64, entity string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, SyncError{
		CanvasCourseID: canvasCourseID,
		Entity:         entity,
		Message:        err.Error(),
		Retryable:      appErrors.Retryable(err),
	})
}

func (r *Result) warn(messages ...string) {
	if len(messages) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, messages...)
}

func (r *Result) addCourse(localID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CourseIDs = append(r.CourseIDs, localID)
}

func (r *Result) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}
