package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-rsvp/internal/config"
	"github.com/iliyamo/event-rsvp/internal/utils"
)

func newTestContext(method, path string, hdr map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	const secret = "unit-secret"
	at, err := utils.NewAccessToken(secret, 7, "ATTENDEE", 5)
	require.NoError(t, err)

	c, rec := newTestContext(http.MethodGet, "/v1/me", map[string]string{
		"Authorization": "Bearer " + at.Token,
	})
	var gotUser, gotRole interface{}
	h := JWTAuth(secret)(func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), gotUser)
	assert.Equal(t, "ATTENDEE", gotRole)
}

func TestJWTAuthRejections(t *testing.T) {
	const secret = "unit-secret"
	wrong, err := utils.NewAccessToken("other-secret", 7, "ATTENDEE", 5)
	require.NoError(t, err)

	cases := []struct {
		name string
		auth string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + wrong.Token},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := map[string]string{}
			if tc.auth != "" {
				hdr["Authorization"] = tc.auth
			}
			c, rec := newTestContext(http.MethodGet, "/v1/me", hdr)
			h := JWTAuth(secret)(okHandler)
			require.NoError(t, h(c))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    interface{}
		allowed []string
		want    int
	}{
		{"allowed role", "ORGANIZER", []string{"ORGANIZER"}, http.StatusOK},
		{"one of several", "ATTENDEE", []string{"ORGANIZER", "ATTENDEE"}, http.StatusOK},
		{"disallowed role", "ATTENDEE", []string{"ORGANIZER"}, http.StatusForbidden},
		{"missing role", nil, []string{"ORGANIZER"}, http.StatusForbidden},
		{"non-string role", 12, []string{"ORGANIZER"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/v1/events", nil)
			if tc.role != nil {
				c.Set("role", tc.role)
			}
			h := RequireRole(tc.allowed...)(okHandler)
			require.NoError(t, h(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	newCtx := func(uid interface{}) echo.Context {
		c, _ := newTestContext(http.MethodPost, "/v1/events/5/rsvp", nil)
		c.SetPath("/v1/events/:id/rsvp")
		c.Request().RemoteAddr = "10.1.2.3:5555"
		if uid != nil {
			c.Set("user_id", uid)
		}
		return c
	}

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.1.2.3", buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, newCtx(uint64(42))))
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:10.1.2.3:route:POST /v1/events/:id/rsvp",
		buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:42:route:POST /v1/events/:id/rsvp",
		buildRateKey(cfg, newCtx(float64(42))))

	// Unknown strategies fall back to the full ip+user+route key.
	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:10.1.2.3:user:42:route:POST /v1/events/:id/rsvp",
		buildRateKey(cfg, newCtx("42")))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/healthz", nil)
	h := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(3), asInt64(3))
	assert.Equal(t, int64(3), asInt64(3.9))
	assert.Equal(t, int64(3), asInt64("3"))
	assert.Equal(t, int64(0), asInt64("x"))
	assert.Equal(t, int64(0), asInt64(nil))
}
