package gateway

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current mode.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

var ErrCircuitOpen = errors.New("gateway: circuit breaker open")

// Breaker is a failure-counting circuit breaker: it trips to Open after a
// consecutive-failure threshold, waits a cooldown, then allows a single
// HalfOpen probe before fully closing or re-opening.
type Breaker struct {
	mu               sync.Mutex
	state            BreakerState
	consecutiveFails int
	failThreshold    int
	cooldown         time.Duration
	openedAt         time.Time
}

func NewBreaker(failThreshold int, cooldown time.Duration) *Breaker {
	return &Breaker{failThreshold: failThreshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed, transitioning Open -> HalfOpen
// once the cooldown has elapsed. The call that makes that transition is the
// single probe; further calls are refused until the probe is recorded.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = HalfOpen
			return nil
		}
		return ErrCircuitOpen
	case HalfOpen:
		return ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails = 0
	b.state = Closed
}

// RecordFailure increments the failure count, tripping the breaker to Open
// once the threshold is reached (or immediately, if the failing call was
// the HalfOpen probe).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.state = Open
		b.openedAt = time.Now()
		return
	}
	b.consecutiveFails++
	if b.consecutiveFails >= b.failThreshold {
		b.state = Open
		b.openedAt = time.Now()
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
