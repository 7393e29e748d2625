package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/resilience"
	"github.com/ppiankov/claimrisk/internal/worker"
)

// Guarded wraps a provider with rate limiting, a circuit breaker and latency metrics
type Guarded struct {
	inner   Completer
	limiter *worker.Limiter
	breaker *resilience.Breaker
}

// NewGuarded wraps inner. A nil limiter disables rate limiting.
func NewGuarded(inner Completer, limiter *worker.Limiter, breakerFailures int, breakerReset time.Duration) *Guarded {
	return &Guarded{
		inner:   inner,
		limiter: limiter,
		breaker: resilience.NewBreaker("llm_"+inner.Name(), breakerFailures, breakerReset),
	}
}

// Name returns the wrapped provider name
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// IsAvailable reports false while the breaker is open
func (g *Guarded) IsAvailable(ctx context.Context) bool {
	if g.breaker.State() == "open" {
		return false
	}
	return g.inner.IsAvailable(ctx)
}

// Complete waits for a rate-limit token, then calls the provider through the breaker
func (g *Guarded) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.inner.Name()); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	start := time.Now()
	resp, err := resilience.Do(g.breaker, func() (*CompletionResponse, error) {
		return g.inner.Complete(ctx, req)
	})
	metrics.ObserveCompletion(g.inner.Name(), time.Since(start), err)
	return resp, err
}
