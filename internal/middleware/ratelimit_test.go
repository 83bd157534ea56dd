package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/smarthotel/booking/internal/config"
)

func rlCtx(t *testing.T, path string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(path)
	return c
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}
	c := rlCtx(t, "/v1/bookings")
	c.Set("user_id", float64(7))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:7", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /v1/bookings", buildRateKey(cfg, c))

	// Unknown strategies fall back to the full key.
	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /v1/bookings", buildRateKey(cfg, c))
}

func TestCurrentUserID(t *testing.T) {
	c := rlCtx(t, "/")
	assert.Equal(t, "anon", currentUserID(c))

	c.Set("user_id", float64(12))
	assert.Equal(t, "12", currentUserID(c))

	c.Set("user_id", uint64(13))
	assert.Equal(t, "13", currentUserID(c))

	c.Set("user_id", "14")
	assert.Equal(t, "14", currentUserID(c))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(5), asInt64(int64(5)))
	assert.Equal(t, int64(5), asInt64(5))
	assert.Equal(t, int64(5), asInt64(float64(5.9)))
	assert.Equal(t, int64(5), asInt64("5"))
	assert.Equal(t, int64(0), asInt64("nope"))
	assert.Equal(t, int64(0), asInt64(nil))
}
