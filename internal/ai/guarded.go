package ai

import (
	"context"

	"postforge/internal/resilience"
)

// Guarded wraps a Client so every provider call passes through the
// resilience gate: breaker check, rate limit, then retries.
type Guarded struct {
	inner Client
	gate  *resilience.Gate

	// OnCall, when set, observes every guarded call outcome.
	OnCall func(ctx context.Context, kind string, err error)
}

// NewGuarded wraps inner with gate.
func NewGuarded(inner Client, gate *resilience.Gate) *Guarded {
	return &Guarded{inner: inner, gate: gate}
}

func (g *Guarded) GenerateText(ctx context.Context, system, user string, opts Options) (string, error) {
	var text string
	err := g.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = g.inner.GenerateText(ctx, system, user, opts)
		return err
	})
	g.observe(ctx, "text", err)
	return text, err
}

func (g *Guarded) GenerateImage(ctx context.Context, prompt string, opts Options) (Image, error) {
	var img Image
	err := g.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		img, err = g.inner.GenerateImage(ctx, prompt, opts)
		return err
	})
	g.observe(ctx, "image", err)
	return img, err
}

func (g *Guarded) observe(ctx context.Context, kind string, err error) {
	if g.OnCall != nil {
		g.OnCall(ctx, kind, err)
	}
}
