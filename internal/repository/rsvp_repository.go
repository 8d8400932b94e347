package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// RsvpRepo implements the reservation protocol. Reserve and Release each run
// a single InnoDB transaction that keeps three structures in lockstep: the
// denormalized attendee_count on the event row, the event_attendees
// membership set, and the rsvps ledger. The capacity check is not a read
// followed by a write; it is the WHERE clause of the counter update, so it is
// evaluated under the event's row lock at write time. Concurrent operations
// on the same event serialize on that lock; operations on distinct events do
// not interact.
type RsvpRepo struct {
	db *sql.DB
}

// NewRsvpRepo returns a new RsvpRepo bound to the given database.
func NewRsvpRepo(db *sql.DB) *RsvpRepo { return &RsvpRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *RsvpRepo) DB() *sql.DB { return r.db }

// reserveAttempts bounds internal retries on transient lock contention.
const reserveAttempts = 3

// errSlotFreed signals that the conditional claim failed but every
// precondition passed on re-read: a concurrent release freed a slot between
// the claim and the classification. The attempt is simply repeated.
var errSlotFreed = errors.New("slot freed concurrently")

// Reserve creates a confirmed reservation for (eventID, userID), or fails
// with exactly one of ErrEventNotFound, ErrEventInPast, ErrAlreadyReserved or
// ErrEventFull, in that precedence. Only deadlocks and lock-wait timeouts are
// retried, and only reserveAttempts times; precondition violations are
// terminal.
func (r *RsvpRepo) Reserve(ctx context.Context, eventID, userID uint64) (*model.Rsvp, error) {
	var rsvp *model.Rsvp
	err := withRetry(func() error {
		var err error
		rsvp, err = r.reserveOnce(ctx, eventID, userID)
		return err
	})
	return rsvp, err
}

func (r *RsvpRepo) reserveOnce(ctx context.Context, eventID, userID uint64) (*model.Rsvp, error) {
	now := time.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Claim a slot. The row lock taken here serializes every reserve and
	// release for this event; the WHERE clause re-validates existence, start
	// time and capacity at write time no matter what was read earlier.
	res, err := tx.ExecContext(ctx,
		`UPDATE events
		 SET attendee_count = attendee_count + 1
		 WHERE id = ? AND starts_at > ? AND attendee_count < capacity`,
		eventID, now)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// No slot claimed. Work out which precondition failed; the reads run
		// outside the transaction since there is nothing left to commit.
		_ = tx.Rollback()
		return nil, r.classifyReserveFailure(ctx, eventID, userID, now)
	}

	// Record membership. The primary key on (event_id, user_id) makes the
	// concurrent-duplicate race lose here; the rollback restores the counter.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES (?, ?)`,
		eventID, userID); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyReserved
		}
		return nil, err
	}

	// Ledger entry, same commit. Its unique key backs up the membership one.
	res, err = tx.ExecContext(ctx,
		`INSERT INTO rsvps (event_id, user_id, status) VALUES (?, ?, ?)`,
		eventID, userID, model.RsvpConfirmed)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyReserved
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	rsvp := &model.Rsvp{ID: uint64(id), EventID: eventID, UserID: userID, Status: model.RsvpConfirmed}
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM rsvps WHERE id = ?`, id).Scan(&rsvp.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rsvp, nil
}

// classifyReserveFailure reads fresh state and maps it onto the precondition
// precedence. The answer is advisory for the caller's error message; the
// claim itself already failed atomically.
func (r *RsvpRepo) classifyReserveFailure(ctx context.Context, eventID, userID uint64, now time.Time) error {
	var startsAt time.Time
	var capacity, count uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT starts_at, capacity, attendee_count FROM events WHERE id = ?`,
		eventID).Scan(&startsAt, &capacity, &count)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	var attending bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM event_attendees WHERE event_id = ? AND user_id = ?)`,
		eventID, userID).Scan(&attending); err != nil {
		return err
	}
	return reserveFailure(startsAt, capacity, count, attending, now)
}

// reserveFailure picks the reserve error for an event that refused a claim:
// past start first, then duplicate, then capacity. When none of them holds,
// a release freed a slot after the claim failed and the caller retries.
func reserveFailure(startsAt time.Time, capacity, count uint32, attending bool, now time.Time) error {
	switch {
	case !startsAt.After(now):
		return ErrEventInPast
	case attending:
		return ErrAlreadyReserved
	case count >= capacity:
		return ErrEventFull
	default:
		return errSlotFreed
	}
}

// Release cancels the confirmed reservation for (eventID, userID). The ledger
// row is deleted outright, the membership row removed and the counter
// decremented, all under one commit. A second Release for the same pair finds
// no ledger row and returns ErrRsvpNotFound without mutating anything, which
// callers treat as "already released".
func (r *RsvpRepo) Release(ctx context.Context, eventID, userID uint64) error {
	return withRetry(func() error {
		return r.releaseOnce(ctx, eventID, userID)
	})
}

func (r *RsvpRepo) releaseOnce(ctx context.Context, eventID, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row first so reserve and release take locks in the same
	// order and serialize per event.
	var id uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE id = ? FOR UPDATE`, eventID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM rsvps WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRsvpNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?`, eventID, userID); err != nil {
		return err
	}
	// attendee_count > 0 guards the unsigned column; with the structures in
	// lockstep it always holds when a ledger row was deleted.
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET attendee_count = attendee_count - 1 WHERE id = ? AND attendee_count > 0`,
		eventID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// withRetry runs fn up to reserveAttempts times, repeating only on transient
// lock contention or a concurrently freed slot.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) && !errors.Is(err, errSlotFreed) {
			return err
		}
	}
	if errors.Is(err, errSlotFreed) {
		// Ran out of attempts while slots kept moving; report the event full
		// rather than leaking an internal sentinel.
		return ErrEventFull
	}
	return err
}

// RsvpDetail is a confirmed reservation joined with its event for the
// my-rsvps listing.
type RsvpDetail struct {
	ID        uint64      `json:"id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Event     EventDetail `json:"event"`
}

// ListByUser returns the user's confirmed reservations, newest first. Events
// are deleted with their ledger rows, so a reservation can never reference a
// missing event here.
func (r *RsvpRepo) ListByUser(ctx context.Context, userID uint64) ([]RsvpDetail, error) {
	q := `SELECT r.id, r.status, r.created_at, ` + eventDetailCols + `
	      FROM rsvps r
	      JOIN events e ON e.id = r.event_id
	      JOIN users u ON u.id = e.organizer_id
	      WHERE r.user_id = ?
	      ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]RsvpDetail, 0)
	for rows.Next() {
		var d RsvpDetail
		if err := rows.Scan(
			&d.ID, &d.Status, &d.CreatedAt,
			&d.Event.ID, &d.Event.Title, &d.Event.Description, &d.Event.Location, &d.Event.ImageURL,
			&d.Event.StartsAt, &d.Event.Capacity, &d.Event.AttendeeCount, &d.Event.OrganizerID,
			&d.Event.OrganizerName, &d.Event.CreatedAt, &d.Event.UpdatedAt,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
