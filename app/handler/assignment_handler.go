package handler

import (
	"net/http"

	"shiftboard/internal/model"
	"shiftboard/internal/service"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler handles the worker side of an accepted offer
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// List returns the caller's assignments
// @Summary List own assignments
// @Tags assignments
// @Produce json
// @Param active query bool false "Only pending or in progress"
// @Router /api/v1/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.assignmentService.List(c.Request.Context(), model.AssignmentFilter{
		WorkerID:   actor(c),
		OnlyActive: c.Query("active") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": items, "total": len(items)})
}

// Get returns one assignment to its worker or the offer's poster
// @Summary Get assignment
// @Tags assignments
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Success 200 {object} model.AssignmentDetail
// @Router /api/v1/assignments/{assignment_id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	detail, err := h.assignmentService.Get(c.Request.Context(), actor(c), c.Param("assignment_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// QuoteCancellation previews the penalty a cancellation would incur
// @Summary Cancellation quote
// @Tags assignments
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Success 200 {object} model.CancellationQuote
// @Router /api/v1/assignments/{assignment_id}/cancellation [get]
func (h *AssignmentHandler) QuoteCancellation(c *gin.Context) {
	quote, err := h.assignmentService.QuoteCancellation(c.Request.Context(), actor(c), c.Param("assignment_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Cancel cancels a pending assignment
// @Summary Cancel assignment
// @Tags assignments
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Success 200 {object} model.CancelResponse
// @Router /api/v1/assignments/{assignment_id}/cancel [post]
func (h *AssignmentHandler) Cancel(c *gin.Context) {
	resp, err := h.assignmentService.Cancel(c.Request.Context(), actor(c), c.Param("assignment_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckEligibility evaluates the arrival gates for a position
// @Summary Arrival eligibility
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Param request body model.ConfirmArrivalRequest false "Current position"
// @Success 200 {object} model.ArrivalEligibility
// @Router /api/v1/assignments/{assignment_id}/eligibility [post]
func (h *AssignmentHandler) CheckEligibility(c *gin.Context) {
	var req model.ConfirmArrivalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	pos := req.Position()
	if pos != nil {
		if err := pos.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	result, err := h.assignmentService.CheckEligibility(c.Request.Context(), actor(c), c.Param("assignment_id"), pos)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmArrival confirms the worker is on site
// @Summary Confirm arrival
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment_id path string true "Assignment ID"
// @Param request body model.ConfirmArrivalRequest true "Current position"
// @Success 200 {object} model.ArrivalResponse
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/assignments/{assignment_id}/arrival [post]
func (h *AssignmentHandler) ConfirmArrival(c *gin.Context) {
	var req model.ConfirmArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.assignmentService.ConfirmArrival(c.Request.Context(), actor(c), c.Param("assignment_id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
