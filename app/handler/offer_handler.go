package handler

import (
	"net/http"

	"shiftboard/internal/model"
	"shiftboard/internal/service"

	"github.com/gin-gonic/gin"
)

// OfferHandler handles offer catalog and acceptance
type OfferHandler struct {
	offerService      *service.OfferService
	assignmentService *service.AssignmentService
}

// NewOfferHandler creates offer handler
func NewOfferHandler(offerService *service.OfferService, assignmentService *service.AssignmentService) *OfferHandler {
	return &OfferHandler{
		offerService:      offerService,
		assignmentService: assignmentService,
	}
}

// Create publishes a new offer owned by the caller
// @Summary Create offer
// @Tags offers
// @Accept json
// @Produce json
// @Param request body model.CreateOfferRequest true "Offer"
// @Success 201 {object} model.Offer
// @Router /api/v1/offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	var req model.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), actor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// Get returns one offer
// @Summary Get offer
// @Tags offers
// @Produce json
// @Param offer_id path string true "Offer ID"
// @Success 200 {object} model.Offer
// @Router /api/v1/offers/{offer_id} [get]
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offerService.Get(c.Request.Context(), c.Param("offer_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// Update edits an offer that has not been accepted yet
// @Summary Update offer
// @Tags offers
// @Accept json
// @Produce json
// @Param offer_id path string true "Offer ID"
// @Param request body model.UpdateOfferRequest true "Changed fields"
// @Success 200 {object} model.Offer
// @Router /api/v1/offers/{offer_id} [put]
func (h *OfferHandler) Update(c *gin.Context) {
	var req model.UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	offer, err := h.offerService.Update(c.Request.Context(), actor(c), c.Param("offer_id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// ListOpen lists open offers flagged for the calling worker
// @Summary List open offers
// @Tags offers
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {array} model.OfferListing
// @Router /api/v1/offers [get]
func (h *OfferHandler) ListOpen(c *gin.Context) {
	limit, offset := page(c)
	listings, err := h.offerService.ListForWorker(c.Request.Context(), actor(c), model.OfferFilter{
		Date:   c.Query("date"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": listings, "total": len(listings)})
}

// ListMine lists offers posted by the caller
// @Summary List own offers
// @Tags offers
// @Produce json
// @Param open query bool false "Only offers still open"
// @Param archived query bool false "Include archived offers"
// @Success 200 {array} model.Offer
// @Router /api/v1/me/offers [get]
func (h *OfferHandler) ListMine(c *gin.Context) {
	limit, offset := page(c)
	offers, err := h.offerService.ListByPoster(c.Request.Context(), actor(c), model.OfferFilter{
		Date:            c.Query("date"),
		OnlyOpen:        c.Query("open") == "true",
		IncludeArchived: c.Query("archived") == "true",
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers, "total": len(offers)})
}

// Accept accepts an offer on behalf of the calling worker
// @Summary Accept offer
// @Tags offers
// @Produce json
// @Param offer_id path string true "Offer ID"
// @Success 201 {object} model.AcceptOfferResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/offers/{offer_id}/accept [post]
func (h *OfferHandler) Accept(c *gin.Context) {
	resp, err := h.assignmentService.Accept(c.Request.Context(), actor(c), c.Param("offer_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
