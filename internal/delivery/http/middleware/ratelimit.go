package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"hogar360/internal/delivery/http/helpers"
)

// RateLimiter applies a fixed-window request limit keyed by client IP,
// backed by redis so the limit holds across instances. A nil redis
// client disables limiting entirely; a redis failure lets the request
// through rather than blocking traffic on the limiter.
type RateLimiter struct {
	rdb      *redis.Client
	logger   *slog.Logger
	requests int
	window   time.Duration
}

// NewRateLimiter returns a RateLimiter allowing requests per window.
func NewRateLimiter(rdb *redis.Client, logger *slog.Logger, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		logger:   logger,
		requests: requests,
		window:   window,
	}
}

// Limit wraps next with the rate limit check.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	if rl == nil || rl.rdb == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + r.URL.Path + ":" + clientIP(r)

		count, err := rl.rdb.Incr(r.Context(), key).Result()
		if err != nil {
			rl.logger.WarnContext(r.Context(), "rate limit check failed", "err", err)
			next(w, r)
			return
		}
		if count == 1 {
			if err := rl.rdb.Expire(r.Context(), key, rl.window).Err(); err != nil {
				rl.logger.WarnContext(r.Context(), "rate limit expire failed", "err", err)
			}
		}
		if count > int64(rl.requests) {
			helpers.WriteJSONError(w, http.StatusTooManyRequests, helpers.ErrCodeTooManyRequests, "too many requests, try again later")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// the first entry is the original client
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
