// Package resilience wraps calls to external collaborators in circuit breakers.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/metrics"
)

// ErrCircuitOpen is returned without calling the collaborator while the breaker is open
var ErrCircuitOpen = eris.New("circuit breaker open")

// Breaker guards one collaborator
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker trips after failures consecutive errors and probes again after reset.
// Non-positive values fall back to 5 failures and 30s.
func NewBreaker(name string, failures int, reset time.Duration) *Breaker {
	if failures <= 0 {
		failures = 5
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     reset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		// Caller cancellation says nothing about collaborator health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	}

	metrics.RecordBreakerState(name, 0)
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State reports the current breaker state as "closed", "half-open" or "open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Do runs fn through the breaker. Open and half-open rejections become ErrCircuitOpen.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrCircuitOpen
		}
		return zero, err
	}
	return out.(T), nil
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return -1
	}
}
