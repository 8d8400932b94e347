package model

import "time"

// Event represents a capacity-limited event as stored in the `events` table.
// AttendeeCount is a denormalized count of rows in `event_attendees` for this
// event. It is maintained exclusively by the RSVP repository inside the same
// transaction as the attendance and ledger writes, and it is the value the
// capacity condition is checked against at write time. The invariant
// 0 <= AttendeeCount <= Capacity holds on every committed row.
//
// Fields:
//
//	ID            – primary key identifier.
//	Title         – event title.
//	Description   – free-form description.
//	Location      – venue text.
//	ImageURL      – optional banner image URL.
//	StartsAt      – when the event begins; RSVPs close at this instant.
//	Capacity      – maximum number of attendees (>= 1).
//	AttendeeCount – current number of attendees.
//	OrganizerID   – user who created the event; immutable.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Event struct {
	ID            uint64    // events.id
	Title         string    // events.title
	Description   string    // events.description
	Location      string    // events.location
	ImageURL      string    // events.image_url
	StartsAt      time.Time // events.starts_at
	Capacity      uint32    // events.capacity
	AttendeeCount uint32    // events.attendee_count
	OrganizerID   uint64    // events.organizer_id
	CreatedAt     time.Time // events.created_at
	UpdatedAt     time.Time // events.updated_at
}
