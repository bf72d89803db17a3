// Package resilience provides a circuit breaker that gates repository call
// admission. The breaker holds process-local state only; it is never
// persisted and is owned exclusively by the repository it wraps.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state
type State string

// Circuit breaker states
const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Config holds circuit breaker configuration
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit
	FailureThreshold int `yaml:"failureThreshold" env:"CB_FAILURE_THRESHOLD"`

	// ResetTimeout is how long the circuit stays open before admitting a
	// half-open trial call
	ResetTimeout time.Duration `yaml:"resetTimeout" env:"CB_RESET_TIMEOUT"`
}

// DefaultConfig returns production-ready defaults
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Metrics is a point-in-time snapshot of the breaker's counters. Timestamps
// are zero when the corresponding event has not occurred.
type Metrics struct {
	State         State     `json:"state"`
	FailureCount  int64     `json:"failureCount"`
	SuccessCount  int64     `json:"successCount"`
	TotalRequests int64     `json:"totalRequests"`
	LastFailure   time.Time `json:"lastFailure,omitzero"`
	NextAttempt   time.Time `json:"nextAttempt,omitzero"`
}

// CircuitOpenError is returned when a call is rejected without invoking the
// wrapped operation
type CircuitOpenError struct {
	NextAttempt time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker is open, next attempt allowed at %s",
		e.NextAttempt.Format(time.RFC3339))
}

// CircuitBreaker implements the CLOSED → OPEN → HALF_OPEN state machine.
// Counter exactness under concurrent failures is not guaranteed beyond
// eventual threshold crossing; the mutex only keeps transitions consistent.
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failureCount  int64
	successCount  int64
	totalRequests int64
	lastFailure   time.Time
	nextAttempt   time.Time
	probeInFlight bool
}

// NewCircuitBreaker creates a circuit breaker in the CLOSED state
func NewCircuitBreaker(config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = DefaultConfig().ResetTimeout
	}
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn under circuit breaker admission control. Rejected calls
// return CircuitOpenError without invoking fn; admitted calls return fn's
// error unchanged after the outcome is recorded.
func (b *CircuitBreaker) Execute(fn func() error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}
	err := fn()
	b.afterCall(err)
	return err
}

// State returns the current state
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Metrics returns a snapshot of the breaker's counters
func (b *CircuitBreaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Metrics{
		State:         b.state,
		FailureCount:  b.failureCount,
		SuccessCount:  b.successCount,
		TotalRequests: b.totalRequests,
		LastFailure:   b.lastFailure,
		NextAttempt:   b.nextAttempt,
	}
}

// Reset returns the breaker to CLOSED with all counters zeroed and timestamps
// cleared
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.totalRequests = 0
	b.lastFailure = time.Time{}
	b.nextAttempt = time.Time{}
	b.probeInFlight = false
}

// beforeCall admits or rejects a call. Every call counts toward
// totalRequests, rejected ones included.
func (b *CircuitBreaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++

	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextAttempt) {
			return &CircuitOpenError{NextAttempt: b.nextAttempt}
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		// Exactly one trial call may be in flight
		if b.probeInFlight {
			return &CircuitOpenError{NextAttempt: b.nextAttempt}
		}
		b.probeInFlight = true
		return nil
	}
	return nil
}

func (b *CircuitBreaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.successCount++
		switch b.state {
		case StateHalfOpen:
			b.state = StateClosed
			b.failureCount = 0
			b.probeInFlight = false
		case StateClosed:
			b.failureCount = 0
		}
		return
	}

	b.failureCount++
	b.lastFailure = b.now()
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.nextAttempt = b.now().Add(b.config.ResetTimeout)
		b.probeInFlight = false
	case StateClosed:
		if b.failureCount >= int64(b.config.FailureThreshold) {
			b.state = StateOpen
			b.nextAttempt = b.now().Add(b.config.ResetTimeout)
		}
	}
}
