package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/deep-research/internal/config"
)

// Guard wraps calls to one provider with an optional rate limit, a circuit
// breaker and retries. A nil *Guard calls through unguarded.
type Guard struct {
	service string
	limiter *rate.Limiter
	breaker *CircuitBreaker
	retry   RetryConfig
}

// NewGuard builds a guard for service. perSec <= 0 disables throttling.
func NewGuard(service string, retry RetryConfig, breaker *CircuitBreaker, perSec float64, burst int) *Guard {
	g := &Guard{service: service, breaker: breaker, retry: retry}
	if perSec > 0 {
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = RetryLogger(service, "call")
	}
	return g
}

// Service returns the guarded provider name.
func (g *Guard) Service() string { return g.service }

// Call runs fn under g. Each attempt waits on the limiter and passes the
// breaker; the whole sequence is retried per the retry config.
func Call[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	return DoVal(ctx, g.retry, func(ctx context.Context) (T, error) {
		var zero T
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, eris.Wrapf(err, "%s: rate limit wait", g.service)
			}
		}
		if g.breaker == nil {
			return fn(ctx)
		}
		return ExecuteVal(ctx, g.breaker, fn)
	})
}

// RetryFromConfig converts config values to a RetryConfig.
func RetryFromConfig(c config.RetryConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	if c.Multiplier > 0 {
		cfg.Multiplier = c.Multiplier
	}
	if c.JitterFraction >= 0 {
		cfg.JitterFraction = c.JitterFraction
	}
	return cfg
}

// CircuitFromConfig converts config values to a CircuitBreakerConfig.
func CircuitFromConfig(c config.CircuitConfig) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if c.FailureThreshold > 0 {
		cfg.FailureThreshold = c.FailureThreshold
	}
	if c.ResetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(c.ResetTimeoutSecs) * time.Second
	}
	return cfg
}
