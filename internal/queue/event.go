// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// RsvpConfirmedEvent is published after a reservation commits. It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type RsvpConfirmedEvent struct {
	RsvpID      uint64 `json:"rsvp_id"`
	EventID     uint64 `json:"event_id"`
	UserID      uint64 `json:"user_id"`
	ConfirmedAt string `json:"confirmed_at"`
}

// RsvpCancelledEvent is published after a reservation is released.
type RsvpCancelledEvent struct {
	EventID     uint64 `json:"event_id"`
	UserID      uint64 `json:"user_id"`
	CancelledAt string `json:"cancelled_at"`
}
