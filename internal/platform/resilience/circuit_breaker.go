package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after a run of consecutive failures and, once the
// open window elapses, lets a bounded number of probe requests through
// before deciding whether to close again.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold   int
	openWindow  time.Duration
	probeBudget int

	state     CircuitState
	failures  int
	trippedAt time.Time
	probes    int
	probeWins int
	now       func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if openTimeout <= 0 {
		openTimeout = 15 * time.Second
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = 1
	}

	return &CircuitBreaker{
		threshold:   failureThreshold,
		openWindow:  openTimeout,
		probeBudget: halfOpenMaxReq,
		state:       CircuitStateClosed,
		now:         time.Now,
	}
}

// Allow reports whether the caller may attempt the protected operation.
// A granted call in the half-open state consumes one probe slot; the caller
// must follow up with RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.trippedAt) < b.openWindow {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.probes = 0
		b.probeWins = 0
	}

	if b.state == CircuitStateHalfOpen {
		if b.probes >= b.probeBudget {
			return ErrCircuitOpen
		}
		b.probes++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		b.probeWins++
		if b.probeWins >= b.probeBudget && b.probes == 0 {
			b.state = CircuitStateClosed
			b.failures = 0
			b.probes = 0
			b.probeWins = 0
			b.trippedAt = time.Time{}
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	case CircuitStateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		b.trip()
	case CircuitStateOpen:
		// Failures reported while open re-arm the window.
		b.trippedAt = b.now()
	}
}

// State reports the effective state: an open breaker whose window has
// elapsed is reported half-open even before the next Allow transitions it.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.trippedAt) >= b.openWindow {
		return CircuitStateHalfOpen
	}

	return b.state
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitStateOpen
	b.trippedAt = b.now()
	b.probes = 0
	b.probeWins = 0
}
