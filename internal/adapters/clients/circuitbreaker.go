package clients

import (
	"net/http"
	"sync"
	"time"
)

// State is the position of the breaker guarding the model API.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota

	// StateOpen rejects calls with ErrCircuitOpen until the cool-down passes.
	StateOpen

	// StateHalfOpen lets a limited number of trial calls test whether the API recovered.
	StateHalfOpen
)

// String returns the state name used in logs and readiness messages.
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

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failed calls that opens the circuit.
	MaxFailures int

	// Timeout is the cool-down spent open before trying again.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent trial calls and the number of
	// consecutive trial successes needed to close again.
	HalfOpenLimit int
}

// TripsCircuit reports whether a response status counts against the model API.
//
// Rate limiting (429) and server errors count. Other 4xx answers mean the
// request or the credential is wrong; the API itself is reachable, so they
// count as success for the breaker and surface to the caller unchanged.
func TripsCircuit(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// CircuitBreaker stops calling the model API after repeated failures so a
// rate-limited or failing upstream is not hammered by every page submit.
//
//   - Closed → Open after MaxFailures consecutive failures
//   - Open → HalfOpen once Timeout has passed since the last failure
//   - HalfOpen → Closed after HalfOpenLimit consecutive successes
//   - HalfOpen → Open on any failure
//
// A call abandoned by its caller is neither: Release frees its trial slot.
type CircuitBreaker struct {
	mu          sync.RWMutex
	state       State
	failures    int
	successes   int
	trials      int // half-open calls in flight
	lastFailure time.Time
	cfg         CircuitBreakerConfig

	onStateChange func(from, to State)
	now           func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnStateChange registers a callback run asynchronously on every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Allow reports whether a call may proceed. An open circuit whose cool-down
// has passed moves to half-open and admits the caller as the first trial.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cfg.Timeout {
			return false
		}

		cb.transitionTo(StateHalfOpen)
		cb.trials = 1

		return true

	case StateHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenLimit {
			return false
		}
		cb.trials++

		return true

	default:
		return false
	}
}

// RecordSuccess records a call the API answered without tripping the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0

	case StateHalfOpen:
		cb.releaseTrial()
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenLimit {
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed call: a transport error, timeout, 429 or 5xx.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		cb.releaseTrial()
		cb.transitionTo(StateOpen)
	}
}

// Release ends a call without an outcome, e.g. when the page request was
// canceled. Counters are untouched; a half-open trial slot is freed.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.releaseTrial()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// OpenFor returns how long the circuit stays open before the next trial call.
// Zero unless the state is open.
func (cb *CircuitBreaker) OpenFor() time.Duration {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.state != StateOpen {
		return 0
	}

	remaining := cb.cfg.Timeout - cb.now().Sub(cb.lastFailure)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// releaseTrial must be called with the lock held.
func (cb *CircuitBreaker) releaseTrial() {
	if cb.trials > 0 {
		cb.trials--
	}
}

// transitionTo must be called with the lock held. Counters reset on every move.
func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}

	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if next != StateHalfOpen {
		cb.trials = 0
	}

	if cb.onStateChange != nil {
		go cb.onStateChange(prev, next)
	}
}
