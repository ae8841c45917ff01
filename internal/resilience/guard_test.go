package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sells-group/deep-research/internal/config"
)

func TestCall_NilGuardCallsThrough(t *testing.T) {
	var g *Guard
	v, err := Call(context.Background(), g, func(_ context.Context) (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("expected ok, got %q %v", v, err)
	}
}

func TestCall_RetriesThroughBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 10})
	g := NewGuard("serper", fastRetry(3), cb, 0, 0)

	var calls int
	v, err := Call(context.Background(), g, func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewTransientError(errors.New("503"), 503)
		}
		return 5, nil
	})
	if err != nil || v != 5 {
		t.Fatalf("expected 5, got %d %v", v, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if g.Service() != "serper" {
		t.Errorf("unexpected service %s", g.Service())
	}
}

func TestCall_OpenBreakerIsNotRetried(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	failN(cb, 1, errOverloaded)
	g := NewGuard("anthropic", fastRetry(3), cb, 0, 0)

	var calls int
	_, err := Call(context.Background(), g, func(_ context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestCall_LimiterHonorsContext(t *testing.T) {
	g := NewGuard("jina", RetryConfig{MaxAttempts: 1}, nil, 0.001, 1)

	// The first token is available immediately; the second is not.
	if _, err := Call(context.Background(), g, func(_ context.Context) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Call(ctx, g, func(_ context.Context) (int, error) { return 1, nil })
	if err == nil {
		t.Error("expected limiter wait to fail")
	}
}

func TestFromConfig(t *testing.T) {
	rc := RetryFromConfig(config.RetryConfig{MaxAttempts: 4, InitialBackoffMs: 200, MaxBackoffMs: 1000, Multiplier: 3, JitterFraction: 0})
	if rc.MaxAttempts != 4 || rc.InitialBackoff != 200*time.Millisecond || rc.MaxBackoff != time.Second || rc.Multiplier != 3 || rc.JitterFraction != 0 {
		t.Errorf("unexpected retry config: %+v", rc)
	}

	cc := CircuitFromConfig(config.CircuitConfig{FailureThreshold: 2, ResetTimeoutSecs: 9})
	if cc.FailureThreshold != 2 || cc.ResetTimeout != 9*time.Second {
		t.Errorf("unexpected circuit config: %+v", cc)
	}

	def := CircuitFromConfig(config.CircuitConfig{})
	if def.FailureThreshold != 5 || def.ResetTimeout != 30*time.Second {
		t.Errorf("expected defaults, got %+v", def)
	}
}
