package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// EventRepo provides persistence for events. The attendance columns
// (attendee_count, event_attendees rows) are owned by RsvpRepo; EventRepo
// only ever reads them, except for the cascade delete which retires them
// together with the event.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// EventDetail is the shape returned to clients: an event joined with its
// organizer's public fields.
type EventDetail struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	ImageURL      string    `json:"image_url,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	Capacity      uint32    `json:"capacity"`
	AttendeeCount uint32    `json:"attendee_count"`
	OrganizerID   uint64    `json:"organizer_id"`
	OrganizerName string    `json:"organizer_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateEventParams carries the optional fields of an event update. Nil
// pointers leave the column untouched.
type UpdateEventParams struct {
	Title       *string
	Description *string
	Location    *string
	ImageURL    *string
	StartsAt    *time.Time
	Capacity    *uint32
}

const eventDetailCols = `e.id, e.title, e.description, e.location, e.image_url,
       e.starts_at, e.capacity, e.attendee_count, e.organizer_id, u.email,
       e.created_at, e.updated_at`

// Create inserts a new event for the given organizer and returns its ID.
// Attendance starts at zero; capacity validation (>= 1, start in the future)
// happens in the handler before this is called.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, description, location, image_url, starts_at, capacity, attendee_count, organizer_id)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		ev.Title, ev.Description, ev.Location, ev.ImageURL, ev.StartsAt.UTC(), ev.Capacity, ev.OrganizerID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns a single event with organizer details, or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*EventDetail, error) {
	q := `SELECT ` + eventDetailCols + `
	      FROM events e JOIN users u ON u.id = e.organizer_id
	      WHERE e.id = ?`
	var d EventDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Title, &d.Description, &d.Location, &d.ImageURL,
		&d.StartsAt, &d.Capacity, &d.AttendeeCount, &d.OrganizerID, &d.OrganizerName,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListAll returns every event ordered by start time ascending.
func (r *EventRepo) ListAll(ctx context.Context) ([]EventDetail, error) {
	q := `SELECT ` + eventDetailCols + `
	      FROM events e JOIN users u ON u.id = e.organizer_id
	      ORDER BY e.starts_at ASC`
	return r.queryDetails(ctx, q)
}

// ListByOrganizer returns the events created by one organizer, ordered by
// start time ascending.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]EventDetail, error) {
	q := `SELECT ` + eventDetailCols + `
	      FROM events e JOIN users u ON u.id = e.organizer_id
	      WHERE e.organizer_id = ?
	      ORDER BY e.starts_at ASC`
	return r.queryDetails(ctx, q, organizerID)
}

func (r *EventRepo) queryDetails(ctx context.Context, q string, args ...interface{}) ([]EventDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]EventDetail, 0)
	for rows.Next() {
		var d EventDetail
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.Location, &d.ImageURL,
			&d.StartsAt, &d.Capacity, &d.AttendeeCount, &d.OrganizerID, &d.OrganizerName,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// UpdateByIDAndOwner applies a partial update to an event owned by ownerID.
// A capacity change passes the edit guard: the new value must be at least the
// attendee count at the instant of write, otherwise ErrCapacityBelowAttendance.
// The guard is re-stated in the UPDATE's WHERE clause so the condition holds
// at write time even though the row is already locked.
func (r *EventRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, p UpdateEventParams) error {
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

	var organizerID uint64
	var attendees uint32
	err = tx.QueryRowContext(ctx,
		`SELECT organizer_id, attendee_count FROM events WHERE id = ? FOR UPDATE`,
		id).Scan(&organizerID, &attendees)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if organizerID != ownerID {
		return ErrForbidden
	}
	if p.Capacity != nil && *p.Capacity < attendees {
		return ErrCapacityBelowAttendance
	}

	set := ""
	args := make([]interface{}, 0, 8)
	add := func(col string, v interface{}) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	if p.StartsAt != nil {
		add("starts_at", p.StartsAt.UTC())
	}
	if p.Capacity != nil {
		add("capacity", *p.Capacity)
	}
	if set == "" {
		committed = true
		return tx.Commit() // nothing to change
	}

	q := `UPDATE events SET ` + set + ` WHERE id = ?`
	args = append(args, id)
	if p.Capacity != nil {
		q += ` AND attendee_count <= ?`
		args = append(args, *p.Capacity)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 && p.Capacity != nil {
		return ErrCapacityBelowAttendance
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteByIDAndOwner removes an event and all its reservations. The ledger
// rows are deleted before the event row: a failure in between leaves a valid
// event with zero attendees, never a reservation referencing a missing event.
func (r *EventRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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

	var organizerID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ? FOR UPDATE`,
		id).Scan(&organizerID)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if organizerID != ownerID {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Attendee is one row of an event's attendance list as shown to its
// organizer.
type Attendee struct {
	UserID   uint64    `json:"user_id"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// ListAttendees returns the attendance set of an event owned by ownerID,
// oldest reservation first. Returns ErrEventNotFound when the event does not
// exist and ErrForbidden when it belongs to another organizer.
func (r *EventRepo) ListAttendees(ctx context.Context, eventID, ownerID uint64) ([]Attendee, error) {
	var organizerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&organizerID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if organizerID != ownerID {
		return nil, ErrForbidden
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.user_id, u.email, a.created_at
		 FROM event_attendees a JOIN users u ON u.id = a.user_id
		 WHERE a.event_id = ?
		 ORDER BY a.created_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attendee, 0)
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.UserID, &a.Email, &a.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
