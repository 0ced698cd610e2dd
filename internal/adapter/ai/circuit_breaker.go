package ai

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState is the breaker's admission state.
type CircuitState int

const (
	// CircuitClosed admits requests normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the recovery timeout elapses.
	CircuitOpen
	// CircuitHalfOpen admits a probe request to test recovery.
	CircuitHalfOpen
)

// CircuitBreaker guards the AI provider: after a run of consecutive failures
// it rejects calls outright so the analyzer degrades to empty suggestions
// instead of waiting out provider timeouts on every job.
type CircuitBreaker struct {
	mu               sync.Mutex
	model            string
	failureThreshold int
	recoveryTimeout  time.Duration
	state            CircuitState
	failureCount     int
	lastFailureTime  time.Time
	totalRequests    int64
	totalFailures    int64
}

// NewCircuitBreaker creates a breaker for the configured model.
func NewCircuitBreaker(model string) *CircuitBreaker {
	return &CircuitBreaker{
		model:            model,
		failureThreshold: 3,
		recoveryTimeout:  30 * time.Second,
		state:            CircuitClosed,
	}
}

// ShouldAttempt reports whether a provider call may proceed. An open breaker
// whose recovery timeout has elapsed moves to half-open and admits one probe.
func (cb *CircuitBreaker) ShouldAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.state = CircuitHalfOpen
			slog.Info("circuit breaker probing recovery", slog.String("model", cb.model))
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure run and closes a probing breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	cb.failureCount = 0
	if cb.state != CircuitClosed {
		cb.state = CircuitClosed
		slog.Info("circuit breaker closed after successful recovery", slog.String("model", cb.model))
	}
}

// RecordFailure counts a failed call and opens the breaker at the threshold.
// A failed half-open probe reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	cb.totalFailures++
	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.state = CircuitOpen
		slog.Warn("circuit breaker opened",
			slog.String("model", cb.model),
			slog.Int("consecutive_failures", cb.failureCount))
	}
}

// State returns the current admission state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats exposes breaker counters for the operational stats surface.
func (cb *CircuitBreaker) Stats() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]any{
		"model":          cb.model,
		"state":          cb.state.String(),
		"total_requests": cb.totalRequests,
		"total_failures": cb.totalFailures,
	}
}

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
