package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"onefine/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds per-client rate limit settings.
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	IdleTTL         time.Duration // entries unused this long are dropped
	CleanupInterval time.Duration
}

// LoginRateLimiterConfig allows perMinute attempts per client per minute.
func LoginRateLimiterConfig(perMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(float64(perMinute) / 60.0),
		Burst:           perMinute,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	config RateLimiterConfig
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a limiter and starts its background cleanup.
func NewRateLimiter(config RateLimiterConfig, logger zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		logger:  logger.With().Str("component", "rate-limiter").Logger(),
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}

	return rl
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if !rl.allow(key) {
			rl.logger.Warn().
				Str("client", key).
				Str("path", r.URL.Path).
				Msg("rate limit exceeded")

			retryAfter := 1
			if rl.config.Rate > 0 {
				retryAfter = int(1/float64(rl.config.Rate)) + 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests,
				model.NewDomainError(model.ErrCodeRateLimited, "Too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientCount returns the number of tracked clients.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.clients[key] = cl
	}
	cl.lastAccess = time.Now()

	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.clients {
		if now.Sub(cl.lastAccess) > rl.config.IdleTTL {
			delete(rl.clients, key)
		}
	}
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
