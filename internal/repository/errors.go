// Package repository defines sentinel error values shared across
// repositories. Handlers compare against these with errors.Is to pick the
// HTTP status for a failed operation. Every precondition violation of the
// reservation protocol has its own sentinel so callers can tell a full event
// from a duplicate reservation from a stale event id.
package repository

import "errors"

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrEventInPast is returned when an RSVP is attempted on or after the
// event's start time, regardless of remaining capacity.
var ErrEventInPast = errors.New("event already started")

// ErrAlreadyReserved is returned when the user already holds a confirmed
// reservation for the event. This includes the race where two concurrent
// requests both pass the initial checks and only one insert wins; the loser
// surfaces this, not an internal error.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrEventFull is returned when the event is at capacity at commit time.
var ErrEventFull = errors.New("event full")

// ErrRsvpNotFound is returned when a cancellation finds no confirmed
// reservation for the (event, user) pair. Callers treat it as "already
// released"; retrying a cancel is a safe no-op.
var ErrRsvpNotFound = errors.New("rsvp not found")

// ErrCapacityBelowAttendance is returned when an organizer tries to shrink
// an event's capacity below its current attendee count.
var ErrCapacityBelowAttendance = errors.New("capacity below current attendance")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registration collides with an existing
// email address.
var ErrEmailExists = errors.New("email already exists")
