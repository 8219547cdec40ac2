// Package resilience guards outbound AI calls with a circuit breaker,
// a sliding-window rate limiter and bounded retries.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

var (
	// ErrCircuitOpen is returned while the breaker is refusing calls.
	ErrCircuitOpen = errors.New("resilience: circuit breaker open")

	// ErrRateLimited is returned when the request budget for the
	// current window is spent. Callers back off; nothing is queued.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")
)

// Config tunes the gate. Zero values fall back to the defaults below.
type Config struct {
	BreakerEnabled   bool
	FailureThreshold int
	OpenTimeout      time.Duration

	LimiterEnabled bool
	MaxRequests    int
	Window         time.Duration

	RetryEnabled bool
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig returns the standard gate settings with every
// mechanism enabled.
func DefaultConfig() Config {
	return Config{
		BreakerEnabled:   true,
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
		LimiterEnabled:   true,
		MaxRequests:      20,
		Window:           60 * time.Second,
		RetryEnabled:     true,
		MaxRetries:       3,
		InitialDelay:     time.Second,
		MaxDelay:         30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = d.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	return c
}

// Status is a point-in-time snapshot of the gate.
type Status struct {
	BreakerState     string    `json:"breaker_state"`
	ConsecutiveFails int       `json:"consecutive_failures"`
	OpenedAt         time.Time `json:"opened_at,omitempty"`
	WindowRequests   int       `json:"window_requests"`
	WindowLimit      int       `json:"window_limit"`
}

// Gate serializes resilience policy around an operation: breaker
// check first, then the rate limiter, then the retry loop. Only real
// call failures count against the breaker; limiter rejections do not.
type Gate struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	state     string
	failures  int
	openedAt  time.Time
	trialBusy bool
	requests  []time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewGate builds a gate with the given config.
func NewGate(cfg Config, logger *slog.Logger) *Gate {
	return &Gate{
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  StateClosed,
		now:    time.Now,
		sleep:  sleepCtx,
		jitter: func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
	}
}

// Do runs fn under the gate's policy. The returned error is
// ErrCircuitOpen or ErrRateLimited when the call was refused, or the
// last attempt's error when all retries are spent.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	trial, err := g.admit()
	if err != nil {
		return err
	}

	callErr := g.attempt(ctx, fn)
	g.settle(trial, callErr)
	return callErr
}

// admit applies the breaker and limiter checks. It reports whether
// this call is the half-open trial.
func (g *Gate) admit() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	trial := false

	if g.cfg.BreakerEnabled {
		switch g.state {
		case StateOpen:
			if now.Sub(g.openedAt) < g.cfg.OpenTimeout {
				return false, ErrCircuitOpen
			}
			g.state = StateHalfOpen
			g.trialBusy = false
			g.logger.Info("circuit breaker half-open, allowing trial call")
			fallthrough
		case StateHalfOpen:
			if g.trialBusy {
				return false, ErrCircuitOpen
			}
			g.trialBusy = true
			trial = true
		}
	}

	if g.cfg.LimiterEnabled {
		g.pruneWindow(now)
		if len(g.requests) >= g.cfg.MaxRequests {
			if trial {
				g.trialBusy = false
			}
			return false, ErrRateLimited
		}
		g.requests = append(g.requests, now)
	}

	return trial, nil
}

// attempt runs fn with the retry policy: exponential backoff with
// jitter, capped at MaxDelay, aborting early on context cancellation.
func (g *Gate) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := 1
	if g.cfg.RetryEnabled {
		attempts = g.cfg.MaxRetries
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := g.cfg.InitialDelay<<uint(i-1) + g.jitter()
			if delay > g.cfg.MaxDelay {
				delay = g.cfg.MaxDelay
			}
			if serr := g.sleep(ctx, delay); serr != nil {
				return serr
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		g.logger.Warn("guarded call failed", "attempt", i+1, "attempts", attempts, "error", err)
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, err)
}

// settle records the final outcome against the breaker. Retry
// exhaustion counts as one failure.
func (g *Gate) settle(trial bool, callErr error) {
	if !g.cfg.BreakerEnabled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if trial {
		g.trialBusy = false
	}

	if callErr == nil {
		if g.state != StateClosed {
			g.logger.Info("circuit breaker closed after successful trial")
		}
		g.state = StateClosed
		g.failures = 0
		return
	}

	if g.state == StateHalfOpen {
		g.open()
		return
	}

	g.failures++
	if g.failures >= g.cfg.FailureThreshold {
		g.open()
	}
}

// open trips the breaker. Caller holds the mutex.
func (g *Gate) open() {
	g.state = StateOpen
	g.openedAt = g.now()
	g.logger.Error("circuit breaker opened", "failures", g.failures)
}

// pruneWindow drops request timestamps older than the window. Caller
// holds the mutex.
func (g *Gate) pruneWindow(now time.Time) {
	cutoff := now.Add(-g.cfg.Window)
	i := 0
	for i < len(g.requests) && !g.requests[i].After(cutoff) {
		i++
	}
	g.requests = g.requests[i:]
}

// Status returns a snapshot for the operations API.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneWindow(g.now())
	return Status{
		BreakerState:     g.state,
		ConsecutiveFails: g.failures,
		OpenedAt:         g.openedAt,
		WindowRequests:   len(g.requests),
		WindowLimit:      g.cfg.MaxRequests,
	}
}

// ResetBreaker force-closes the breaker and clears the failure count.
func (g *Gate) ResetBreaker() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateClosed
	g.failures = 0
	g.trialBusy = false
	g.logger.Info("circuit breaker reset")
}

// ResetLimiter clears the request window.
func (g *Gate) ResetLimiter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = nil
	g.logger.Info("rate limiter reset")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
