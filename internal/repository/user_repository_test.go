package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/utils"
)

func TestUserCreateAndFetch(t *testing.T) {
	db := testDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	email := fmt.Sprintf("create-%d@test.local", time.Now().UnixNano())
	id, err := users.Create(ctx, "  "+email+"  ", "pw", model.RoleOrganizer, bcrypt.MinCost)
	require.NoError(t, err)
	require.NotZero(t, id)

	// Lookup normalizes the email the same way Create did.
	u, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, model.RoleOrganizer, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "pw"))

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	// The same address, differently cased, is the same account.
	_, err = users.Create(ctx, "  "+upperFirst(email), "pw2", model.RoleAttendee, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := testDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	userID := createUser(t, db)
	rt, err := utils.NewRefreshToken(7)
	require.NoError(t, err)
	hash := utils.HashRefreshRaw(rt.Raw)

	require.NoError(t, tokens.StoreRefresh(ctx, userID, hash, rt.Exp))

	got, err := tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// A revoked token stops validating; revoking twice is harmless.
	require.NoError(t, tokens.RevokeByHash(ctx, hash))
	_, err = tokens.ValidateRefresh(ctx, hash)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tokens.RevokeByHash(ctx, hash))

	// Unknown hashes never validate.
	_, err = tokens.ValidateRefresh(ctx, utils.HashRefreshRaw("never-issued"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExpiredRefreshTokenRejected(t *testing.T) {
	db := testDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	userID := createUser(t, db)
	hash := utils.HashRefreshRaw("expired-token")
	require.NoError(t, tokens.StoreRefresh(ctx, userID, hash, time.Now().UTC().Add(-time.Minute)))

	_, err := tokens.ValidateRefresh(ctx, hash)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
