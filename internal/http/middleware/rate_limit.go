package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prodlast/cospace-backend/internal/http/response"
	"github.com/prodlast/cospace-backend/pkg/logger"
)

// RateLimiter is a fixed-window counter over redis, keyed by client IP.
type RateLimiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(rdb *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, requests: requests, window: window}
}

// Limit returns middleware enforcing the limit under the given key prefix.
func (rl *RateLimiter) Limit(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(r.Context(), prefix+":"+getClientIP(r)) {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	count, err := rl.rdb.Incr(ctx, "rl:"+key).Result()
	if err != nil {
		// Fail open when redis is unreachable.
		logger.WarnContext(ctx, "rate limit check failed", "error", err, "key", key)
		return true
	}
	if count == 1 {
		rl.rdb.Expire(ctx, "rl:"+key, rl.window)
	}
	return count <= int64(rl.requests)
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
