package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name used in logs and health details.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded upstream in state-change callbacks.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a trial call is
	// let through. Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxRequests bounds concurrent trial calls. Default: 1
	HalfOpenMaxRequests int

	// OnStateChange runs with the breaker lock held; it must not call back
	// into the breaker.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether err counts against the upstream. The
	// default ignores permanent errors and caller cancellation.
	IsFailure func(err error) bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// CircuitBreaker stops calling an upstream after repeated failures and
// tries it again once ResetTimeout has passed.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	trials      int
	opened      int64
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !IsPermanent(err) && !errors.Is(err, context.Canceled)
		}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current state, moving open to half-open when the reset
// timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trials = 0
	cb.transitionLocked(StateClosed)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.trials >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.trials++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)
	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		cb.lastFailure = cb.config.Now()
		if cb.failures >= cb.config.MaxFailures {
			cb.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.trials--
		if failed {
			cb.lastFailure = cb.config.Now()
			cb.transitionLocked(StateOpen)
			return
		}
		cb.failures = 0
		cb.transitionLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.trials = 0
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateOpen {
		cb.opened++
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// CircuitBreakerMetrics is a point-in-time view of a breaker.
type CircuitBreakerMetrics struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	Opened      int64     `json:"opened"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// Metrics returns the breaker's current counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerMetrics{
		Name:        cb.config.Name,
		State:       cb.stateLocked().String(),
		Failures:    cb.failures,
		Opened:      cb.opened,
		LastFailure: cb.lastFailure,
	}
}
