package appMiddleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/wanderplan/config"
	"github.com/FACorreiaa/wanderplan/internal/api"
	"github.com/FACorreiaa/wanderplan/internal/api/auth"
)

const idleLimiterTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per caller. Buckets of callers that
// stay idle for idleLimiterTTL are evicted.
type RateLimiter struct {
	logger   *slog.Logger
	limit    rate.Limit
	burst    int
	visitors *cache.Cache
}

func NewRateLimiter(cfg config.RateLimitConfig, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		logger:   logger,
		limit:    rate.Every(time.Minute / time.Duration(max(cfg.PerMinute, 1))),
		burst:    max(cfg.Burst, 1),
		visitors: cache.New(idleLimiterTTL, 2*idleLimiterTTL),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, found := rl.visitors.Get(key); found {
		rl.visitors.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.visitors.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// lost the race against a concurrent request from the same caller
		if v, found := rl.visitors.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Limit rejects requests over the caller's budget with 429. Callers are keyed
// by authenticated user id, falling back to the remote address, so it must be
// mounted after auth.Authenticate.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.GetUserIDFromContext(r.Context())
		if !ok || key == "" {
			key = "ip:" + r.RemoteAddr
		}

		reservation := rl.getLimiter(key).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			retryAfter := int(math.Ceil(delay.Seconds()))
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("caller", key),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after_s", retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			api.ErrorResponse(w, r, http.StatusTooManyRequests,
				fmt.Sprintf("Demasiadas solicitudes. Intenta de nuevo en %d segundos.", retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}
