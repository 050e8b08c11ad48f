package handler

import (
	"net/http"

	"shiftboard/internal/service"

	"github.com/gin-gonic/gin"
)

// GamificationHandler serves XP profiles and the penalty ledger
type GamificationHandler struct {
	gamificationService *service.GamificationService
	penaltyService      *service.PenaltyService
}

// NewGamificationHandler creates gamification handler
func NewGamificationHandler(gamificationService *service.GamificationService, penaltyService *service.PenaltyService) *GamificationHandler {
	return &GamificationHandler{
		gamificationService: gamificationService,
		penaltyService:      penaltyService,
	}
}

// Profile returns a worker's XP, level and streak.
// Without a worker_id path parameter the caller's own profile is returned.
// @Summary Gamification profile
// @Tags gamification
// @Produce json
// @Param worker_id path string false "Worker ID"
// @Success 200 {object} model.GamificationProfile
// @Router /api/v1/workers/{worker_id}/profile [get]
func (h *GamificationHandler) Profile(c *gin.Context) {
	workerID := c.Param("worker_id")
	if workerID == "" {
		workerID = actor(c)
	}

	profile, err := h.gamificationService.GetProfile(c.Request.Context(), workerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Penalties lists the caller's penalty history, newest first
// @Summary Penalty history
// @Tags gamification
// @Produce json
// @Success 200 {array} model.PenaltyRecord
// @Router /api/v1/me/penalties [get]
func (h *GamificationHandler) Penalties(c *gin.Context) {
	limit, offset := page(c)
	records, err := h.penaltyService.ListByWorker(c.Request.Context(), actor(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"penalties": records, "total": len(records)})
}
