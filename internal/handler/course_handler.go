package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/canvas-sync-api/internal/models"
	"github.com/noah-isme/canvas-sync-api/internal/service"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
	"github.com/noah-isme/canvas-sync-api/pkg/response"
)

// CourseHandler exposes the mirrored course data as tool endpoints.
type CourseHandler struct {
	query *service.QueryService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(query *service.QueryService) *CourseHandler {
	return &CourseHandler{query: query}
}

func courseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return 0, false
	}
	return id, true
}

// List godoc
// @Summary List courses
// @Description List mirrored courses with filters
// @Tags Courses
// @Produce json
// @Param term query int false "Filter by local term id"
// @Param search query string false "Match against name or code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	if term := c.Query("term"); term != "" {
		if id, err := strconv.ParseInt(term, 10, 64); err == nil {
			filter.TermID = &id
		}
	}
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.query.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	course, err := h.query.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Assignments godoc
// @Summary List course assignments
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Param type query string false "Filter by assignment type"
// @Param dueAfter query string false "RFC3339 lower bound on due date"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [get]
func (h *CourseHandler) Assignments(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}

	var filter models.AssignmentFilter
	if t := c.Query("type"); t != "" {
		filter.Type = models.AssignmentType(t)
	}
	if raw := c.Query("dueAfter"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dueAfter timestamp"))
			return
		}
		filter.DueAfter = &t
	}

	assignments, err := h.query.CourseAssignments(c.Request.Context(), id, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Modules godoc
// @Summary List course modules with items
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/modules [get]
func (h *CourseHandler) Modules(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	modules, err := h.query.CourseModules(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// Announcements godoc
// @Summary List course announcements and conversations
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Param limit query int false "Cap on announcements returned"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/announcements [get]
func (h *CourseHandler) Announcements(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	messages, err := h.query.CourseMessages(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Syllabus godoc
// @Summary Get course syllabus
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/syllabus [get]
func (h *CourseHandler) Syllabus(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	syllabus, err := h.query.CourseSyllabus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, syllabus, nil)
}

// Deadlines godoc
// @Summary List upcoming deadlines across courses
// @Tags Deadlines
// @Produce json
// @Param days query int false "Window in days, defaults per configuration"
// @Param userId query string false "Apply this user's course opt-outs"
// @Success 200 {object} response.Envelope
// @Router /deadlines [get]
func (h *CourseHandler) Deadlines(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid days value"))
			return
		}
		days = n
	}
	events, err := h.query.UpcomingDeadlines(c.Request.Context(), days, c.Query("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
