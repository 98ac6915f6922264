package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every backend in a [FallbackGroup] fails or
// is behind an open circuit breaker.
var ErrAllFailed = errors.New("all backends failed")

// FallbackConfig configures the circuit breaker created for each backend in
// a [FallbackGroup]. The breaker Name is overwritten per backend; set
// OnStateChange to observe transitions across the whole group.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// backend pairs one provider value with its dedicated circuit breaker.
type backend[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds an ordered list of interchangeable backends, each
// guarded by its own circuit breaker. Calls go to the first backend whose
// breaker admits them and which returns success; later backends are only
// consulted after earlier ones fail.
//
// Registration happens at startup; after that the group is safe for
// concurrent use.
type FallbackGroup[T any] struct {
	backends []backend[T]
	cfg      FallbackConfig
}

// NewFallbackGroup creates a group with primary as its only backend.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a backend. Backends are tried in registration order.
func (fg *FallbackGroup[T]) AddFallback(name string, value T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.backends = append(fg.backends, backend[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// States reports the current circuit breaker state per backend name.
func (fg *FallbackGroup[T]) States() map[string]State {
	states := make(map[string]State, len(fg.backends))
	for i := range fg.backends {
		states[fg.backends[i].name] = fg.backends[i].breaker.State()
	}
	return states
}

// ExecuteWithResult runs fn against each backend in order until one succeeds.
// Backends behind an open breaker are skipped. When every backend fails, the
// returned error wraps [ErrAllFailed] and names the last backend tried.
//
// This is a package-level function because Go methods cannot introduce the
// result type parameter R.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr  error
		lastName string
		zero     R
	)
	for i := range fg.backends {
		b := &fg.backends[i]

		var result R
		err := b.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(b.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}

		lastErr, lastName = err, b.name
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("backend skipped, breaker open", "backend", b.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", b.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %s: %v", ErrAllFailed, lastName, lastErr)
}
