package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

// ClientLimiter throttles each client address separately so the server-held
// provider credential cannot be burned through by a single caller.
type ClientLimiter struct {
	limiters map[string]*clientEntry
	mu       sync.RWMutex
	config   RateLimitConfig
	now      func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         10,
	}
}

func NewClientLimiter(config RateLimitConfig) *ClientLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		config:   config,
		now:      time.Now,
	}
}

func (l *ClientLimiter) GetLimiter(client string) *rate.Limiter {
	now := l.now()

	l.mu.RLock()
	entry, exists := l.limiters[client]
	l.mu.RUnlock()

	if exists {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, exists = l.limiters[client]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	entry = &clientEntry{
		limiter:  rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.BurstSize),
		lastSeen: now,
	}
	l.limiters[client] = entry
	return entry.limiter
}

func (l *ClientLimiter) Allow(client string) bool {
	return l.GetLimiter(client).Allow()
}

// Prune forgets clients idle for longer than idle and reports how many were
// dropped.
func (l *ClientLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for client, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, client)
			dropped++
		}
	}
	return dropped
}

// Middleware rejects requests over the client's budget with 429.
func (l *ClientLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limited",
					Message: "Too many searches, please slow down.",
					Code:    http.StatusTooManyRequests,
				})
			}
			return next(c)
		}
	}
}
