package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"

	"oilrush/internal/metrics"
)

// RateLimiter is a fixed-window limiter on Redis INCR/EXPIRE. A nil client or
// any Redis error lets the request through.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, max: maxRequests, window: window}
}

// ConnectRedis returns nil when addr is empty or the server does not answer a
// ping, which leaves rate limiting disabled.
func ConnectRedis(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// Middleware limits per authenticated user, falling back to the remote address.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.client == nil {
			next.ServeHTTP(w, r)
			return
		}
		route := routePattern(r)
		ident := r.RemoteAddr
		if user, err := userFromContext(r.Context()); err == nil {
			ident = user.UserID
		}
		key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + route + ":" + ident

		ctx := r.Context()
		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			w.Header().Set("X-RateLimit-Error", "redis-error")
			next.ServeHTTP(w, r)
			return
		}
		if val == 1 {
			if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
				// A counter without a TTL would never reset.
				l.client.Del(ctx, key)
				w.Header().Set("X-RateLimit-Error", "redis-error")
				next.ServeHTTP(w, r)
				return
			}
		}
		if val > int64(l.max) {
			l.ensureTTL(ctx, key)
			metrics.RLBlocked.WithLabelValues(route).Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		metrics.RLRequests.WithLabelValues(route).Inc()
		next.ServeHTTP(w, r)
	})
}

// ensureTTL restores the window on a counter that lost its expiry, so a
// blocked caller is never locked out for good.
func (l *RateLimiter) ensureTTL(ctx context.Context, key string) {
	ttl, err := l.client.TTL(ctx, key).Result()
	if err == nil && ttl < 0 {
		l.client.Expire(ctx, key, l.window)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
