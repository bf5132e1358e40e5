package app

import (
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"copilot-codegen/pkg/utils"
)

// EnvRateLimit sets the steady request rate per client, in requests per minute.
const EnvRateLimit = "BRIDGE_RATE_LIMIT"

const (
	defaultRatePerMinute = 30
	defaultBurst         = 10
)

// clientLimiter rate limits each authorized client separately.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// limiterFromEnv builds the limiter from BRIDGE_RATE_LIMIT. Zero or a negative
// value disables limiting.
func limiterFromEnv() *clientLimiter {
	perMinute, err := strconv.Atoi(utils.GetEnvWithDefault(EnvRateLimit, strconv.Itoa(defaultRatePerMinute)))
	if err != nil {
		perMinute = defaultRatePerMinute
	}
	if perMinute <= 0 {
		return newClientLimiter(rate.Inf, 0)
	}
	return newClientLimiter(rate.Limit(float64(perMinute)/60), defaultBurst)
}

// Allow reports whether client may make a request now.
func (l *clientLimiter) Allow(client string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[client] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
