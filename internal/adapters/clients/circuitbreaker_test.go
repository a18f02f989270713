package clients

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so cool-downs need no sleeps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.Now

	return cb, clock
}

func TestTripsCircuit(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TripsCircuit(tt.status))
		})
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second, HalfOpenLimit: 1})

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "a success in between resets the streak")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_OpenFor(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 30 * time.Second, HalfOpenLimit: 1})

	assert.Zero(t, cb.OpenFor(), "closed circuit")

	cb.RecordFailure()
	assert.Equal(t, 30*time.Second, cb.OpenFor())

	clock.Advance(20 * time.Second)
	assert.Equal(t, 10*time.Second, cb.OpenFor())

	clock.Advance(15 * time.Second)
	assert.Zero(t, cb.OpenFor(), "cool-down passed but nobody asked yet")
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Second, HalfOpenLimit: 2})

	cb.RecordFailure()
	clock.Advance(9 * time.Second)
	assert.False(t, cb.Allow())

	clock.Advance(time.Second)
	require.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	require.True(t, cb.Allow())
	assert.False(t, cb.Allow(), "both trial slots taken")

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Second, HalfOpenLimit: 1})

	cb.RecordFailure()
	clock.Advance(10 * time.Second)
	require.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 10*time.Second, cb.OpenFor(), "cool-down restarts from the failed trial")
}

func TestCircuitBreaker_ReleaseFreesTrialSlot(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Second, HalfOpenLimit: 1})

	cb.RecordFailure()
	clock.Advance(10 * time.Second)
	require.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	cb.Release()
	assert.Equal(t, StateHalfOpen, cb.State(), "an abandoned trial decides nothing")
	assert.True(t, cb.Allow(), "the slot is available again")
}

func TestCircuitBreaker_ReleaseWhileClosedKeepsStreak(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: 10 * time.Second, HalfOpenLimit: 1})

	cb.RecordFailure()
	cb.Release()
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenLimit: 1})

	var (
		mu          sync.Mutex
		transitions []string
	)

	cb.OnStateChange(func(from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.RecordFailure()
	clock.Advance(time.Second)
	require.True(t, cb.Allow())
	cb.RecordSuccess()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_ConcurrentTrialsRespectLimit(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenLimit: 3})

	cb.RecordFailure()
	clock.Advance(time.Second)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Allow() {
				allowed.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(3), allowed.Load())
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
