package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration // sweep period for idle keys
	TTL               time.Duration // idle time before a key is forgotten
}

func (c RateLimiterConfig) withDefaults() RateLimiterConfig {
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	return c
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per key and forgets idle keys until
// its context is cancelled.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

func newLimiterStore(ctx context.Context, cfg RateLimiterConfig) *limiterStore {
	cfg = cfg.withDefaults()
	s := &limiterStore{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.BurstSize,
		ttl:     cfg.TTL,
	}
	go s.sweep(ctx, cfg.CleanupInterval)
	return s
}

// reserve takes a token for key. ok is false when none is available; wait
// is then the time until the next one.
func (s *limiterStore) reserve(key string) (ok bool, wait time.Duration) {
	now := time.Now()

	s.mu.Lock()
	entry, exists := s.entries[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	wait = r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *limiterStore) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.evictIdle(now)
		}
	}
}

func (s *limiterStore) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.entries, key)
		}
	}
}

func rejectTooMany(w http.ResponseWriter, wait time.Duration) {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMITED")
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	store *limiterStore
}

// NewRateLimiter creates an IP rate limiter. Idle clients are swept until
// ctx is cancelled.
func NewRateLimiter(ctx context.Context, cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{store: newLimiterStore(ctx, cfg)}
}

// Middleware returns an HTTP middleware that rate limits requests
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.store.reserve(getClientIP(r)); !ok {
			rejectTooMany(w, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return stripPort(strings.TrimSpace(first))
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// RateLimitByKey limits requests per authenticated operator.
type RateLimitByKey struct {
	store *limiterStore
}

// NewRateLimitByKey creates an operator rate limiter. Idle operators are
// swept until ctx is cancelled.
func NewRateLimitByKey(ctx context.Context, requestsPerSecond float64, burst int) *RateLimitByKey {
	return &RateLimitByKey{store: newLimiterStore(ctx, RateLimiterConfig{
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burst,
	})}
}

// PerOperator returns a middleware that rate limits requests by the
// authenticated operator, falling back to the client IP. It must run after
// JWTMiddleware.
func (rl *RateLimitByKey) PerOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + getClientIP(r)
		if claims, ok := GetClaims(r.Context()); ok {
			key = "operator:" + claims.OperatorID.String()
		}

		if ok, wait := rl.store.reserve(key); !ok {
			rejectTooMany(w, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}
