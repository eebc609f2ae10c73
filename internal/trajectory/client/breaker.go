package client

import (
	"sync"
	"time"

	"github.com/talentlake/talentrank/internal/common/metrics"
)

const (
	// DefaultFailureThreshold opens the breaker on the failure after this
	// many consecutive failures (the 4th with the default of 3).
	DefaultFailureThreshold = 3

	// DefaultCooldown is how long the breaker stays open before the next
	// call is attempted.
	DefaultCooldown = 30 * time.Second
)

// BreakerState is a point-in-time snapshot of the breaker.
type BreakerState struct {
	Failures      int        `json:"failures"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	Open          bool       `json:"open"`
}

// CircuitBreaker tracks consecutive failures for one client instance.
// State is process-scoped and never shared across replicas; every
// transition goes through the single mutex so concurrent completions
// cannot lose updates.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	cooldown         time.Duration

	failures      int
	lastFailureAt time.Time
	open          bool
	probeReady    bool
	cooldownTimer *time.Timer
}

func NewCircuitBreaker(failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
	}
}

// Allow reports whether a call may be attempted: the breaker is closed,
// or it is open and the cooldown has elapsed (a single probe attempt).
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.probeReady {
		// One probe at a time; a failed probe re-opens via RecordFailure.
		b.probeReady = false
		return true
	}
	return false
}

// RecordSuccess resets the breaker to closed with zero failures.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
	b.probeReady = false
	b.stopTimerLocked()
	metrics.BreakerOpen.Set(0)
}

// RecordFailure increments the failure count and opens the breaker once
// the count exceeds the threshold. A failure while open restarts the
// cooldown.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureAt = time.Now().UTC()

	if b.failures > b.failureThreshold {
		b.open = true
		b.probeReady = false
		b.restartTimerLocked()
		metrics.BreakerOpen.Set(1)
	}
}

// State returns a snapshot for health reporting.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := BreakerState{
		Failures: b.failures,
		Open:     b.open,
	}
	if !b.lastFailureAt.IsZero() {
		t := b.lastFailureAt
		st.LastFailureAt = &t
	}
	return st
}

// Closed reports whether the breaker currently permits normal traffic.
func (b *CircuitBreaker) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open
}

// Dispose cancels any pending cooldown timer. The breaker must not be
// used afterwards.
func (b *CircuitBreaker) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
}

func (b *CircuitBreaker) restartTimerLocked() {
	b.stopTimerLocked()
	b.cooldownTimer = time.AfterFunc(b.cooldown, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.open {
			b.probeReady = true
		}
	})
}

func (b *CircuitBreaker) stopTimerLocked() {
	if b.cooldownTimer != nil {
		b.cooldownTimer.Stop()
		b.cooldownTimer = nil
	}
}
