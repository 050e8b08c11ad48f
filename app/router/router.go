package router

import (
	"net/http"

	"shiftboard/app/handler"
	"shiftboard/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	apiKey              string
	offerHandler        *handler.OfferHandler
	assignmentHandler   *handler.AssignmentHandler
	trackingHandler     *handler.TrackingHandler
	gamificationHandler *handler.GamificationHandler
	streamHandler       *handler.StreamHandler
	healthCheck         func() error
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Offer        *handler.OfferHandler
	Assignment   *handler.AssignmentHandler
	Tracking     *handler.TrackingHandler
	Gamification *handler.GamificationHandler
	Stream       *handler.StreamHandler
}

// NewRouter creates a new Router. healthCheck may be nil.
func NewRouter(apiKey string, h Handlers, healthCheck func() error) *Router {
	return &Router{
		apiKey:              apiKey,
		offerHandler:        h.Offer,
		assignmentHandler:   h.Assignment,
		trackingHandler:     h.Tracking,
		gamificationHandler: h.Gamification,
		streamHandler:       h.Stream,
		healthCheck:         healthCheck,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(r.apiKey))
	api.Use(middleware.Identity())
	{
		offers := api.Group("/offers")
		{
			offers.POST("", r.offerHandler.Create)
			offers.GET("", r.offerHandler.ListOpen) // open offers flagged for the caller
			offers.GET("/:offer_id", r.offerHandler.Get)
			offers.PUT("/:offer_id", r.offerHandler.Update)
			offers.POST("/:offer_id/accept", r.offerHandler.Accept)
		}

		assignments := api.Group("/assignments")
		{
			assignments.GET("", r.assignmentHandler.List)
			assignments.GET("/:assignment_id", r.assignmentHandler.Get)
			assignments.GET("/:assignment_id/cancellation", r.assignmentHandler.QuoteCancellation)
			assignments.POST("/:assignment_id/cancel", r.assignmentHandler.Cancel)
			assignments.POST("/:assignment_id/eligibility", r.assignmentHandler.CheckEligibility)
			assignments.POST("/:assignment_id/arrival", r.assignmentHandler.ConfirmArrival)

			// Live tracking
			assignments.POST("/:assignment_id/location", r.trackingHandler.Ping)
			assignments.GET("/:assignment_id/tracker", r.trackingHandler.Status)
			assignments.GET("/:assignment_id/trail", r.trackingHandler.Trail)
		}

		me := api.Group("/me")
		{
			me.GET("/offers", r.offerHandler.ListMine)
			me.GET("/profile", r.gamificationHandler.Profile)
			me.GET("/penalties", r.gamificationHandler.Penalties)
		}

		api.GET("/workers/:worker_id/profile", r.gamificationHandler.Profile)

		if r.streamHandler != nil {
			api.GET("/stream", r.streamHandler.Subscribe)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		if r.healthCheck != nil {
			if err := r.healthCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
