package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"mailgate/internal/logger"
)

// Policy is one named fixed-window rate limit. A route may sit behind several
// policies at once (a global baseline plus a stricter per-route one).
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

// WindowStore records request counts per (policy, caller key) window. Incr
// must be atomic per pair; it returns the count including this request and
// the instant the current window resets.
type WindowStore interface {
	Incr(policy, key string, window time.Duration, now time.Time) (count int, resetAt time.Time)
}

// RateLimiter enforces named policies keyed by caller IP. The store and clock
// are injectable so tests can drive time explicitly.
type RateLimiter struct {
	store  WindowStore
	now    func() time.Time
	logger *logger.Logger
}

func NewRateLimiter(store WindowStore, now func() time.Time, log *logger.Logger) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, now: now, logger: log}
}

// Limit returns an Echo middleware enforcing one policy.
func (rl *RateLimiter) Limit(p Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if key == "" {
				key = "unknown"
			}

			now := rl.now()
			count, resetAt := rl.store.Incr(p.Name, key, p.Window, now)
			if count > p.Max {
				retryAfter := int(resetAt.Sub(now).Seconds() + 0.5)
				if retryAfter < 1 {
					retryAfter = 1
				}
				rl.logger.Warnf("rate limited: policy=%s key=%s %s %s", p.Name, key, c.Request().Method, c.Request().URL.Path)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"success":    false,
					"message":    "Too many requests, please try again later.",
					"retryAfter": retryAfter,
				})
			}

			return next(c)
		}
	}
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryWindowStore is the in-process WindowStore. Stale windows are evicted
// by a background sweep so long-gone callers do not pin memory.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

func NewMemoryWindowStore() *MemoryWindowStore {
	s := &MemoryWindowStore{windows: make(map[string]*rateWindow)}
	go s.cleanupLoop()
	return s
}

func (s *MemoryWindowStore) Incr(policy, key string, window time.Duration, now time.Time) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := policy + "|" + key
	w, exists := s.windows[id]
	if !exists || !now.Before(w.resetAt) {
		w = &rateWindow{count: 0, resetAt: now.Add(window)}
		s.windows[id] = w
	}
	w.count++
	return w.count, w.resetAt
}

// cleanupLoop drops windows that expired more than five minutes ago.
func (s *MemoryWindowStore) cleanupLoop() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, w := range s.windows {
			if now.Sub(w.resetAt) > 5*time.Minute {
				delete(s.windows, id)
			}
		}
		s.mu.Unlock()
	}
}
