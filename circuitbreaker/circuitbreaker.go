// Package circuitbreaker stops calling an upstream that keeps failing and probes it again after a cooldown.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // requests flow
	StateOpen                  // requests fail fast
	StateHalfOpen              // one probe request in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets State encode as its name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrCircuitOpen is returned by guarded calls while the breaker blocks requests
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StateChangeFunc is called after every transition, outside the breaker's lock
type StateChangeFunc func(name string, from, to State)

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // used in log prefixes
	Threshold       int           // consecutive failures before opening
	Cooldown        time.Duration // time spent OPEN before a probe is allowed
	HalfOpenTimeout time.Duration // a probe older than this counts as failed
	OnStateChange   StateChangeFunc
}

// CircuitBreaker implements the CLOSED / OPEN / HALF-OPEN state machine
type CircuitBreaker struct {
	name            string
	threshold       int
	cooldown        time.Duration
	halfOpenTimeout time.Duration
	onStateChange   StateChangeFunc

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	lastFailure   time.Time
	halfOpenStart time.Time
}

// Snapshot is a point-in-time view of the breaker used by the status endpoint
type Snapshot struct {
	Name        string        `json:"name"`
	State       State         `json:"state"`
	Failures    int           `json:"failures"`
	Threshold   int           `json:"threshold"`
	Cooldown    time.Duration `json:"-"`
	LastFailure time.Time     `json:"lastFailure,omitempty"`
	RetryIn     time.Duration `json:"-"`
}

// New creates a breaker in the CLOSED state
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		threshold:       cfg.Threshold,
		cooldown:        cfg.Cooldown,
		halfOpenTimeout: cfg.HalfOpenTimeout,
		onStateChange:   cfg.OnStateChange,
		state:           StateClosed,
	}
}

// Name returns the breaker's name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// transition must be called with mu held; the returned func fires the hook and must run after unlock
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	if from == to {
		return func() {}
	}
	cb.state = to

	now := time.Now()
	switch to {
	case StateOpen:
		cb.openedAt = now
	case StateHalfOpen:
		cb.halfOpenStart = now
	}

	hook := cb.onStateChange
	name := cb.name
	return func() {
		if hook != nil {
			hook(name, from, to)
		}
	}
}

// Allow reports whether a request may proceed.
// After the cooldown the first caller becomes the HALF-OPEN probe; everyone else is blocked until it reports.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	notify := func() {}
	defer func() {
		cb.mu.Unlock()
		notify()
	}()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.openedAt) < cb.cooldown {
			return false
		}
		notify = cb.transition(StateHalfOpen)
		log.Infof("%s Cooldown elapsed, letting one probe through", logcolors.CircuitBreakerPrefix(cb.name))
		return true

	case StateHalfOpen:
		if time.Since(cb.halfOpenStart) >= cb.halfOpenTimeout {
			notify = cb.transition(StateOpen)
			log.Warnf("%s Probe timed out, back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		}
		return false

	default:
		return true
	}
}

// RecordSuccess closes a HALF-OPEN breaker and clears the failure streak
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := func() {}
	defer func() {
		cb.mu.Unlock()
		notify()
	}()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		notify = cb.transition(StateClosed)
		log.Infof("%s Probe succeeded, CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	}
}

// RecordFailure extends the failure streak and opens the breaker at the threshold
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	notify := func() {}
	defer func() {
		cb.mu.Unlock()
		notify()
	}()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateHalfOpen:
		notify = cb.transition(StateOpen)
		log.Warnf("%s Probe failed, back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
	case StateClosed:
		if cb.failures >= cb.threshold {
			notify = cb.transition(StateOpen)
			log.Warnf("%s %d consecutive failures, OPEN for %v",
				logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
		}
	}
}

// Execute runs fn when the breaker allows it and records the result.
// Errors for which countsAsFailure returns false are passed through but recorded as success.
func (cb *CircuitBreaker) Execute(fn func() error, countsAsFailure func(error) bool) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && (countsAsFailure == nil || countsAsFailure(err)) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Snapshot returns the breaker's current counters
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		Name:        cb.name,
		State:       cb.state,
		Failures:    cb.failures,
		Threshold:   cb.threshold,
		Cooldown:    cb.cooldown,
		LastFailure: cb.lastFailure,
		RetryIn:     cb.retryInLocked(),
	}
}

// TimeUntilRetry returns how long until the breaker lets a probe through; 0 when CLOSED
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.retryInLocked()
}

func (cb *CircuitBreaker) retryInLocked() time.Duration {
	switch cb.state {
	case StateOpen:
		if remaining := cb.cooldown - time.Since(cb.openedAt); remaining > 0 {
			return remaining
		}
	case StateHalfOpen:
		if remaining := cb.halfOpenTimeout - time.Since(cb.halfOpenStart); remaining > 0 {
			return remaining
		}
	}
	return 0
}

// Reset forces the breaker back to CLOSED
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	notify := cb.transition(StateClosed)
	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.openedAt = time.Time{}
	cb.halfOpenStart = time.Time{}
	cb.mu.Unlock()
	notify()

	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
}
