package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/canvas-sync-api/internal/service"
	appErrors "github.com/noah-isme/canvas-sync-api/pkg/errors"
	"github.com/noah-isme/canvas-sync-api/pkg/response"
)

// PreferenceHandler exposes per-user course preferences.
type PreferenceHandler struct {
	query *service.QueryService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(query *service.QueryService) *PreferenceHandler {
	return &PreferenceHandler{query: query}
}

type setPreferenceBody struct {
	OptedOut bool `json:"opted_out"`
}

func preferenceParams(c *gin.Context) (string, int64, bool) {
	userID := c.Param("userID")
	if userID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user id required"))
		return "", 0, false
	}
	courseID, err := strconv.ParseInt(c.Param("courseID"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return "", 0, false
	}
	return userID, courseID, true
}

// Set godoc
// @Summary Set course preference
// @Description Store a per-user opt-out flag for one course
// @Tags Preferences
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path int true "Course ID"
// @Param payload body setPreferenceBody true "Preference payload"
// @Success 200 {object} response.Envelope
// @Router /users/{userID}/courses/{courseID}/preference [put]
func (h *PreferenceHandler) Set(c *gin.Context) {
	userID, courseID, ok := preferenceParams(c)
	if !ok {
		return
	}
	var body setPreferenceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	pref, err := h.query.SetCoursePreference(c.Request.Context(), service.SetPreferenceRequest{
		UserID:   userID,
		CourseID: courseID,
		OptedOut: body.OptedOut,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Get godoc
// @Summary Get course preference
// @Tags Preferences
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userID}/courses/{courseID}/preference [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, courseID, ok := preferenceParams(c)
	if !ok {
		return
	}
	pref, err := h.query.GetCoursePreference(c.Request.Context(), userID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}
