package handler

import (
	"net/http"
	"strconv"

	"shiftboard/internal/model"
	"shiftboard/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackingHandler handles live position pings and tracker queries
type TrackingHandler struct {
	trackingService *service.TrackingService
}

// NewTrackingHandler creates tracking handler
func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// Ping ingests a position from the assignment's worker
// @Summary Report position
// @Tags tracking
// @Accept json
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Param request body model.PingRequest true "Position"
// @Success 202 {object} model.PingResult
// @Router /api/v1/assignments/{assignment_id}/location [post]
func (h *TrackingHandler) Ping(c *gin.Context) {
	var req model.PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.trackingService.Ping(c.Request.Context(), actor(c), c.Param("assignment_id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// Status returns the current position and its freshness
// @Summary Tracker status
// @Tags tracking
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Success 200 {object} model.TrackerView
// @Router /api/v1/assignments/{assignment_id}/tracker [get]
func (h *TrackingHandler) Status(c *gin.Context) {
	view, err := h.trackingService.Status(c.Request.Context(), actor(c), c.Param("assignment_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Trail returns the recorded route
// @Summary Tracker trail
// @Tags tracking
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Param limit query int false "Max points (default 500)"
// @Success 200 {array} model.LocationPing
// @Router /api/v1/assignments/{assignment_id}/trail [get]
func (h *TrackingHandler) Trail(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "500"))
	if err != nil || limit <= 0 {
		limit = 500
	}

	points, err := h.trackingService.Trail(c.Request.Context(), actor(c), c.Param("assignment_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points, "total": len(points)})
}
