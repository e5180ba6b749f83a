package middleware

import (
	"net/http"
	"resbook/pkg/logger"
	"sync"
	"time"
)

type UserExtractor func(r *http.Request) string

// UserRateLimiter applies a sliding-window request limit per user. Users
// are identified by the X-User-ID header unless a custom extractor is set.
type UserRateLimiter struct {
	mu            sync.RWMutex
	requests      map[string][]time.Time
	limit         int
	window        time.Duration
	userExtractor UserExtractor
	log           *logger.Logger
	stopCh        chan struct{}
}

func NewUserRateLimiter(limit int, window time.Duration, extractor UserExtractor, log *logger.Logger) *UserRateLimiter {
	limiter := &UserRateLimiter{
		requests:      make(map[string][]time.Time),
		limit:         limit,
		window:        window,
		userExtractor: extractor,
		log:           log,
		stopCh:        make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *UserRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for user, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, user)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *UserRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *UserRateLimiter) Allow(userID string) bool {
	if userID == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	validTimestamps := make([]time.Time, 0)
	for _, ts := range rl.requests[userID] {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		rl.requests[userID] = validTimestamps
		return false
	}

	rl.requests[userID] = append(validTimestamps, now)
	return true
}

func UserRateLimit(limiter *UserRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := extractUserID(r, limiter.userExtractor)

			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(userID) {
				rejectRateLimited(w, limiter.log, r, userID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func DefaultUserExtractor(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func extractUserID(r *http.Request, extractor UserExtractor) string {
	if extractor == nil {
		return DefaultUserExtractor(r)
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, userID string) {
	log.Warn("Rate limit exceeded",
		"request_id", requestIDFromContext(r.Context()),
		"user_id", userID,
		"path", r.URL.Path,
		"method", r.Method,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too many requests, slow down"}`))
}
