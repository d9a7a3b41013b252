package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/canvas-sync-api/internal/service"
	"github.com/noah-isme/canvas-sync-api/internal/sync"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
	"github.com/noah-isme/canvas-sync-api/pkg/response"
)

// SyncHandler triggers sync passes and the opt-in prune operation.
type SyncHandler struct {
	sync    *sync.Service
	query   *service.QueryService
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(syncSvc *sync.Service, query *service.QueryService, metrics *service.MetricsService, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{sync: syncSvc, query: query, metrics: metrics, logger: logger}
}

type syncRequest struct {
	Term            string `json:"term"`
	EnrollmentState string `json:"enrollment_state"`
}

// Trigger godoc
// @Summary Run a sync pass
// @Description Mirror courses and their content from Canvas. Per-course failures are reported in the result, not as an error status.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body syncRequest false "Filter overrides"
// @Success 200 {object} response.Envelope
// @Router /sync [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	result, err := h.sync.SyncAll(c.Request.Context(), sync.Options{
		Term:            req.Term,
		EnrollmentState: req.EnrollmentState,
	})
	if err != nil {
		h.metrics.RecordSyncRun(true)
		response.Error(c, err)
		return
	}

	h.metrics.RecordSyncRun(len(result.Errors) > 0)
	for entity, count := range result.Counts {
		h.metrics.RecordSyncEntities(entity, count.Created, count.Updated, count.Skipped)
	}
	h.query.InvalidateMirror(c.Request.Context())

	response.JSON(c, http.StatusOK, result, nil)
}

// Courses godoc
// @Summary Run a courses-only sync pass
// @Description Refresh terms, courses and syllabi without syncing any child entities.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body syncRequest false "Filter overrides"
// @Success 200 {object} response.Envelope
// @Router /sync/courses [post]
func (h *SyncHandler) Courses(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	result, err := h.sync.SyncCourses(c.Request.Context(), sync.Options{
		Term:            req.Term,
		EnrollmentState: req.EnrollmentState,
	})
	if err != nil {
		h.metrics.RecordSyncRun(true)
		response.Error(c, err)
		return
	}

	h.metrics.RecordSyncRun(len(result.Errors) > 0)
	for entity, count := range result.Counts {
		h.metrics.RecordSyncEntities(entity, count.Created, count.Updated, count.Skipped)
	}
	h.query.InvalidateMirror(c.Request.Context())

	response.JSON(c, http.StatusOK, result, nil)
}

// URL path segments accepted by the single-entity sync endpoint.
var entityRoutes = map[string]string{
	"assignments":     sync.EntityAssignment,
	"modules":         sync.EntityModule,
	"announcements":   sync.EntityAnnouncement,
	"calendar_events": sync.EntityCalendar,
	"conversations":   sync.EntityConversation,
}

// SyncCourseEntity godoc
// @Summary Sync one entity type for one course
// @Description Mirror a single entity type of one already-mirrored course. Module items ride along with modules and derived calendar events with assignments.
// @Tags Sync
// @Produce json
// @Param id path int true "Course ID"
// @Param entity path string true "Entity type" Enums(assignments, modules, announcements, calendar_events, conversations)
// @Success 200 {object} response.Envelope
// @Router /sync/courses/{id}/{entity} [post]
func (h *SyncHandler) SyncCourseEntity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	entity, ok := entityRoutes[c.Param("entity")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown entity type"))
		return
	}

	course, err := h.query.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.sync.SyncEntity(c.Request.Context(), *course, entity)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSyncRun(len(result.Errors) > 0)
	for name, count := range result.Counts {
		h.metrics.RecordSyncEntities(name, count.Created, count.Updated, count.Skipped)
	}
	h.query.InvalidateMirror(c.Request.Context())

	response.JSON(c, http.StatusOK, result, nil)
}

// Prune godoc
// @Summary Prune courses absent upstream
// @Description Delete mirrored courses that no longer appear in the Canvas listing. Refused unless pruning is enabled in configuration.
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body syncRequest false "Filter overrides"
// @Success 200 {object} response.Envelope
// @Router /sync/prune [post]
func (h *SyncHandler) Prune(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	pruned, err := h.sync.PruneCourses(c.Request.Context(), sync.Options{
		Term:            req.Term,
		EnrollmentState: req.EnrollmentState,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if pruned == nil {
		pruned = []int64{}
	}
	response.JSON(c, http.StatusOK, gin.H{"pruned_canvas_course_ids": pruned}, nil)
}
