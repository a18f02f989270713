package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single readiness check. Checks here are local
// state lookups, so anything slower is treated as a failure.
const DefaultCheckTimeout = 2 * time.Second

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker reports whether a component can serve. The model client is
// one: it fails while the API key is missing or its circuit is open.
type HealthChecker interface {
	Name() string

	// Check returns nil when healthy. It must honor ctx.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates the checkers behind /-/ready.
type HealthRegistry interface {
	// Register fails with ErrDuplicateChecker if the name is taken.
	Register(checker HealthChecker) error

	// CheckAll runs every check concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the state of one check or of the whole registry.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is unhealthy as soon as one check is.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of one checker. Message carries the error text.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DefaultHealthRegistry is safe for concurrent Register and CheckAll.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates an empty registry using DefaultCheckTimeout.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{
		checkers: make(map[string]HealthChecker),
		timeout:  DefaultCheckTimeout,
	}
}

// WithCheckTimeout overrides the per-check deadline.
func (r *DefaultHealthRegistry) WithCheckTimeout(d time.Duration) *DefaultHealthRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timeout = d

	return r
}

// Register adds a checker under its Name.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if _, taken := r.checkers[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers[name] = checker

	return nil
}

// CheckAll runs each check under its own deadline. A failing check never
// cancels the others.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	timeout := r.timeout
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	for name, checker := range checkers {
		g.Go(func() error {
			res := runCheck(ctx, checker, timeout)

			mu.Lock()
			defer mu.Unlock()

			result.Checks[name] = res
			if res.Status == HealthStatusUnhealthy {
				result.Status = HealthStatusUnhealthy
			}

			return nil
		})
	}

	_ = g.Wait()

	return result
}

func runCheck(ctx context.Context, checker HealthChecker, timeout time.Duration) *CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}
	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}
