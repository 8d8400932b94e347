package model

import "time"

// Rsvp is the reservation ledger entry: one row per confirmed (event, user)
// pair, enforced by a unique key on (event_id, user_id). A row exists iff the
// user is present in the event's attendance set; both are written in one
// transaction. Cancellation deletes the row, so re-reserving after a cancel
// needs no state transition.
//
// Fields:
//
//	ID        – primary key identifier.
//	EventID   – event being attended.
//	UserID    – attendee.
//	Status    – always CONFIRMED while the row exists.
//	CreatedAt – when the reservation was made.
type Rsvp struct {
	ID        uint64    // rsvps.id
	EventID   uint64    // rsvps.event_id
	UserID    uint64    // rsvps.user_id
	Status    string    // rsvps.status
	CreatedAt time.Time // rsvps.created_at
}

// RsvpConfirmed is the only status persisted in rsvps.status.
const RsvpConfirmed = "CONFIRMED"
