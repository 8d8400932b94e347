package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/handler"
	"github.com/iliyamo/event-rsvp/internal/middleware"
	"github.com/iliyamo/event-rsvp/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the public event browse
// endpoints.
func RegisterRoutes(e *echo.Echo, ev *handler.EventHandler) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)

	// Guests may browse events before registering.
	e.GET("/v1/events", ev.ListEvents)
	e.GET("/v1/events/:id", ev.GetEvent)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleOrganizer, model.RoleAttendee))
	auth.GET("/me", a.Me)
}

// RegisterEvents registers event management routes for organizers. Creating,
// editing and deleting events (and inspecting attendance) require the
// ORGANIZER role; deletion cascades over the event's reservations.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleOrganizer))

	g.POST("/events", ev.CreateEvent)
	g.PUT("/events/:id", ev.UpdateEvent)
	g.DELETE("/events/:id", ev.DeleteEvent)
	g.GET("/my-events", ev.ListMyEvents)
	g.GET("/events/:id/attendees", ev.ListAttendees)
}

// RegisterRsvps registers the reservation routes. Any authenticated user may
// reserve a slot, cancel their reservation or list their RSVPs.
func RegisterRsvps(e *echo.Echo, r *handler.RsvpHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleOrganizer, model.RoleAttendee))

	g.POST("/events/:id/rsvp", r.CreateRsvp)
	g.DELETE("/events/:id/rsvp", r.CancelRsvp)
	g.GET("/my-rsvps", r.ListMyRsvps)
}
