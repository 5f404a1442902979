package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hogar360/internal/delivery/http/helpers"
)

func TestRateLimiter_NilClientPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRateLimiter(nil, logger, 5, time.Minute)

	called := false
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodPost, "http://test/slots", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_NilLimiterPassesThrough(t *testing.T) {
	var rl *RateLimiter

	called := false
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodPost, "http://test/slots", nil))

	assert.True(t, called)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRateLimiter(rdb, logger, 2, time.Minute)
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://test/slots/abc/reservations", nil)
		req.RemoteAddr = ip + ":51234"
		rr := httptest.NewRecorder()
		handler(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, do("203.0.113.7").Code)
	require.Equal(t, http.StatusOK, do("203.0.113.7").Code)

	rr := do("203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, helpers.ErrCodeTooManyRequests, envelope.Error.Code)

	// another client is counted separately
	require.Equal(t, http.StatusOK, do("198.51.100.4").Code)

	// the window resets once the key expires
	srv.FastForward(time.Minute)
	require.Equal(t, http.StatusOK, do("203.0.113.7").Code)
}

func TestRateLimiter_RedisFailureLetsRequestThrough(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRateLimiter(rdb, logger, 1, time.Minute)

	called := 0
	handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("http://test/slots/s%d/reservations", i), nil)
		rr := httptest.NewRecorder()
		handler(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 3, called)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr with port", "203.0.113.7:51234", "", "203.0.113.7"},
		{"remote addr without port", "203.0.113.7", "", "203.0.113.7"},
		{"single forwarded entry", "10.0.0.1:80", "198.51.100.4", "198.51.100.4"},
		{"forwarded chain takes first", "10.0.0.1:80", "198.51.100.4, 10.0.0.2, 10.0.0.1", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://test/slots", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
