package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"busbooking/internal/handler"
	"busbooking/internal/middleware"
	"busbooking/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	SessionHandler *handler.SessionHandler
	BookingHandler *handler.BookingHandler
	CatalogHandler *handler.CatalogHandler
	Idempotency    redis.IdempotencyStoreInterface // optional
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.TransactionAttributes())
	}

	router.Use(middleware.Idempotency(deps.Idempotency))

	// Health check.
	router.GET("/health", deps.CatalogHandler.Health)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Booking session routes.
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", deps.SessionHandler.Create)
			sessions.GET("/:id", deps.SessionHandler.Get)
			sessions.DELETE("/:id", deps.SessionHandler.Delete)
			sessions.POST("/:id/start", deps.SessionHandler.Start)
			sessions.GET("/:id/routes", deps.SessionHandler.Routes)
			sessions.POST("/:id/leg", deps.SessionHandler.SelectLeg)
			sessions.GET("/:id/seats", deps.SessionHandler.Seats)
			sessions.POST("/:id/seats/:seat/toggle", deps.SessionHandler.ToggleSeat)
			sessions.POST("/:id/back", deps.SessionHandler.Back)
			sessions.POST("/:id/confirm", deps.SessionHandler.Confirm)
			sessions.POST("/:id/reset", deps.SessionHandler.Reset)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/ticket", deps.BookingHandler.Ticket)
		}

		// Admin catalog routes.
		legs := v1.Group("/admin/legs")
		{
			legs.GET("", deps.CatalogHandler.List)
			legs.POST("", deps.CatalogHandler.Create)
			legs.POST("/refresh", deps.CatalogHandler.Refresh)
			legs.PUT("/:id", deps.CatalogHandler.Update)
			legs.DELETE("/:id", deps.CatalogHandler.Delete)
		}
	}

	return router
}
