package repository

// Database-backed tests exercise the reservation protocol against a real
// MySQL instance with migrations/schema.sql applied. They are skipped unless
// TEST_DATABASE_DSN is set, e.g.
//
//	TEST_DATABASE_DSN='root@tcp(localhost:3306)/event_rsvp_test?parseTime=true&loc=UTC' go test ./...
//
// Each test creates its own users and events, so tests do not interfere with
// each other and the database does not need resetting between runs.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var userSeq uint64

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database-backed tests")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	db.SetMaxOpenConns(25)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	n := atomic.AddUint64(&userSeq, 1)
	email := fmt.Sprintf("u%d-%d@test.local", time.Now().UnixNano(), n)
	res, err := db.Exec(
		"INSERT INTO users (email, password_hash, role) VALUES (?, 'x', 'ATTENDEE')", email)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func createEvent(t *testing.T, db *sql.DB, organizerID uint64, capacity uint32, startsAt time.Time) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO events (title, description, location, starts_at, capacity, attendee_count, organizer_id)
		 VALUES ('t', 'd', 'l', ?, ?, 0, ?)`,
		startsAt.UTC(), capacity, organizerID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// eventState returns the three attendance figures that must stay in
// lockstep: the denormalized counter, the membership set size and the number
// of confirmed ledger rows.
func eventState(t *testing.T, db *sql.DB, eventID uint64) (counter, members, ledger int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT attendee_count FROM events WHERE id = ?", eventID).Scan(&counter))
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_attendees WHERE event_id = ?", eventID).Scan(&members))
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rsvps WHERE event_id = ?", eventID).Scan(&ledger))
	return counter, members, ledger
}

func futureStart() time.Time { return time.Now().UTC().Add(24 * time.Hour) }
