package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"manmitra/utils"
)

// DefaultLimiterIdleTTL is how long an idle client's bucket is kept.
const DefaultLimiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than IdleTTL are dropped on the next sweep.
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex

	limit rate.Limit
	burst int

	IdleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with an equal burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 100
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		IdleTTL:  DefaultLimiterIdleTTL,
		now:      time.Now,
	}
}

// getLimiter returns the bucket for ip, creating it on first use.
func (s *RateLimiter) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweepLocked runs at most once per IdleTTL.
func (s *RateLimiter) sweepLocked(now time.Time) {
	if s.IdleTTL <= 0 || now.Sub(s.lastSweep) < s.IdleTTL {
		return
	}
	for ip, cl := range s.limiters {
		if now.Sub(cl.lastSeen) >= s.IdleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastSweep = now
}

// Tracked reports how many client buckets are held.
func (s *RateLimiter) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Middleware limits requests per IP address.
func (s *RateLimiter) Middleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !s.getLimiter(ip).Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			utils.JSONError(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.", "")
			return
		}
		c.Next()
	}
}
