// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/handlers"
	"wayfarer/internal/http/middleware"
	"wayfarer/internal/infra"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/budget"
	"wayfarer/internal/modules/session"
	"wayfarer/internal/modules/traveler"
	"wayfarer/internal/modules/user"
)

func NewRouter(
	verifier infra.TokenVerifier,
	sessionManager *session.Manager,
	userService *user.Service,
	travelerService *traveler.Service,
	bookingService *booking.Service,
	budgetService *budget.Service,
) http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")

	budgetHandler := handlers.NewBudgetHandler(budgetService)
	api.GET("/budget/estimate", budgetHandler.Estimate)

	// Chat sessions work anonymously; a bearer token, when present, pins the
	// session to the caller.
	chatHandler := handlers.NewChatHandler(sessionManager)
	sessions := api.Group("/sessions", middleware.OptionalAuth(verifier))
	sessions.POST("", chatHandler.Start)
	sessions.GET("/:id", chatHandler.Get)
	sessions.POST("/:id/messages", chatHandler.Message)

	authed := api.Group("", middleware.Auth(verifier))

	userHandler := handlers.NewUserHandler(userService)
	authed.POST("/users/register", userHandler.Register)
	authed.GET("/users/me", userHandler.Me)
	authed.PUT("/users/me", userHandler.Update)

	travelerHandler := handlers.NewTravelerHandler(travelerService)
	authed.POST("/travelers", travelerHandler.Create)
	authed.GET("/travelers", travelerHandler.List)
	authed.PUT("/travelers/:id", travelerHandler.Update)
	authed.DELETE("/travelers/:id", travelerHandler.Delete)

	bookingHandler := handlers.NewBookingHandler(bookingService)
	authed.POST("/bookings", bookingHandler.Create)
	authed.GET("/bookings", bookingHandler.List)
	authed.GET("/bookings/:id", bookingHandler.Get)
	authed.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	authed.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	return r
}
