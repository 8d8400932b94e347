package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/queue"
	"github.com/iliyamo/event-rsvp/internal/repository"
)

// RsvpHandler exposes the reservation engine over HTTP. It stays thin: parse
// the request, call the repository's atomic Reserve/Release, map each
// sentinel error to its status code. Every failure the engine reports is
// terminal from the client's point of view; nothing here retries.
type RsvpHandler struct {
	Rsvps  *repository.RsvpRepo
	Events *repository.EventRepo
}

// NewRsvpHandler constructs an RsvpHandler. Both repositories must be
// non-nil.
func NewRsvpHandler(rsvps *repository.RsvpRepo, events *repository.EventRepo) *RsvpHandler {
	if rsvps == nil || events == nil {
		panic("nil repository passed to NewRsvpHandler")
	}
	return &RsvpHandler{Rsvps: rsvps, Events: events}
}

type rsvpResp struct {
	ID        uint64    `json:"id"`
	EventID   uint64    `json:"event_id"`
	UserID    uint64    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRsvp handles POST /v1/events/:id/rsvp. Exactly one of four failure
// reasons comes back when the reservation is refused: 404 when the event does
// not exist, 400 when it already started, 409 when the caller already holds a
// reservation, 409 when the event is full.
func (h *RsvpHandler) CreateRsvp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	rsvp, err := h.Rsvps.Reserve(c.Request().Context(), eventID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrEventInPast):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot rsvp to past events"})
	case errors.Is(err, repository.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already rsvp'd to this event"})
	case errors.Is(err, repository.ErrEventFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has reached maximum capacity"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create rsvp"})
	}

	// Fire-and-forget domain event; the reservation outcome never depends on
	// the broker.
	go func(ev queue.RsvpConfirmedEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.PublishRsvpConfirmed(ctx, ev)
	}(queue.RsvpConfirmedEvent{
		RsvpID:      rsvp.ID,
		EventID:     rsvp.EventID,
		UserID:      rsvp.UserID,
		ConfirmedAt: rsvp.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, rsvpResp{
		ID:        rsvp.ID,
		EventID:   rsvp.EventID,
		UserID:    rsvp.UserID,
		Status:    rsvp.Status,
		CreatedAt: rsvp.CreatedAt,
	})
}

// CancelRsvp handles DELETE /v1/events/:id/rsvp. Cancelling twice yields 204
// then 404; the second call mutates nothing, so clients may retry freely.
func (h *RsvpHandler) CancelRsvp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	err = h.Rsvps.Release(c.Request().Context(), eventID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrRsvpNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rsvp not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel rsvp"})
	}

	go func(ev queue.RsvpCancelledEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.PublishRsvpCancelled(ctx, ev)
	}(queue.RsvpCancelledEvent{
		EventID:     eventID,
		UserID:      userID,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.NoContent(http.StatusNoContent)
}

// ListMyRsvps handles GET /v1/my-rsvps. It returns the caller's confirmed
// reservations with embedded event details, newest first.
func (h *RsvpHandler) ListMyRsvps(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Rsvps.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rsvps"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
