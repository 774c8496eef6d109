package appMiddleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/wanderplan/config"
	"github.com/FACorreiaa/wanderplan/internal/api/auth"
)

func newLimitedHandler(perMinute, burst int) http.Handler {
	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: perMinute, Burst: burst}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/request", nil)
	if userID != "" {
		req = req.WithContext(auth.WithUser(req.Context(), userID, "user"))
	}
	return req
}

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	h := newLimitedHandler(1, 2)
	user := uuid.NewString()

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestAs(user))
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(user))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Demasiadas solicitudes")
}

func TestRateLimiterIsPerUser(t *testing.T) {
	h := newLimitedHandler(1, 1)
	alice, bob := uuid.NewString(), uuid.NewString()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(alice))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(alice))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(bob))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterFallsBackToRemoteAddr(t *testing.T) {
	h := newLimitedHandler(1, 1)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(""))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestAs(""))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimiterRejectedRequestsDoNotConsumeTokens(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: 1, Burst: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	limiter := rl.getLimiter("u")
	require.True(t, limiter.Allow())

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestAs("u"))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	}
	assert.Same(t, limiter, rl.getLimiter("u"))
	assert.InDelta(t, 0.0, limiter.Tokens(), 0.1)
}
