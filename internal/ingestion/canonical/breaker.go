package canonical

import (
	"sync"
	"time"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker guards the LLM fallback path. failure_threshold
// consecutive failures open the circuit; after recoveryTimeout a single
// half-open probe is allowed. Probe success closes the circuit, probe
// failure re-opens it. Counters are per Canonicalizer instance and reset on
// worker restart by construction.
type circuitBreaker struct {
	mu               sync.Mutex
	state            breakerState
	consecutiveFails int
	failureThreshold int
	recoveryTimeout  time.Duration
	openedAt         time.Time
	probing          bool
	now              func() time.Time
}

func newCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *circuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 60 * time.Second
	}
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. While open, exactly one caller
// is admitted as the half-open probe once the recovery timeout has elapsed;
// everyone else gets ErrCircuitOpen.
func (b *circuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.recoveryTimeout {
			return pkgerrors.ErrCircuitOpen
		}
		b.state = stateHalfOpen
		b.probing = true
		return nil
	case stateHalfOpen:
		if b.probing {
			return pkgerrors.ErrCircuitOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = stateClosed
	b.consecutiveFails = 0
	b.probing = false
}

func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateHalfOpen {
		b.state = stateOpen
		b.openedAt = b.now()
		b.probing = false
		return
	}
	b.consecutiveFails++
	if b.consecutiveFails >= b.failureThreshold {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}
