// Package resilience provides retry and circuit breaker patterns for
// external service calls.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the observable state of a circuit breaker.
type BreakerState string

const (
	// BreakerClosed is the normal operating state. Requests flow through.
	BreakerClosed BreakerState = "closed"
	// BreakerOpen means too many failures. Requests are rejected immediately.
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen allows probe requests to test recovery.
	BreakerHalfOpen BreakerState = "half-open"
)

// ErrBreakerOpen is returned when a call is rejected because the breaker is open.
var ErrBreakerOpen = eris.New("circuit breaker is open")

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureLimit is the number of consecutive failures before opening
	// the breaker. Default: 5.
	FailureLimit int

	// Cooldown is how long the breaker stays open before transitioning
	// to half-open. Default: 30s.
	Cooldown time.Duration

	// ProbeQuota is the number of successful probes required in half-open
	// state before closing the breaker. Default: 1.
	ProbeQuota int

	// ShouldTrip optionally overrides the default check. If nil, every
	// non-nil error counts toward the failure limit.
	ShouldTrip func(err error) bool

	// OnStateChange is called when the breaker transitions between states.
	OnStateChange func(from, to BreakerState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureLimit: 5,
		Cooldown:     30 * time.Second,
		ProbeQuota:   1,
	}
}

// Breaker implements the circuit breaker pattern for a single service.
type Breaker struct {
	cfg   BreakerConfig
	mu    sync.Mutex
	state BreakerState

	failures       int
	lastFailure    time.Time
	probeSuccesses int

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreaker creates a circuit breaker with the given config.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeQuota <= 0 {
		cfg.ProbeQuota = 1
	}
	return &Breaker{
		cfg:     cfg,
		state:   BreakerClosed,
		nowFunc: time.Now,
	}
}

// Execute runs fn through the breaker. Returns ErrBreakerOpen if the
// breaker is open. Success resets the failure counter; failures that trip
// the breaker increment it.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err)
	return err
}

// ExecVal is Execute for functions that return a value.
func ExecVal[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}

	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the current breaker state, accounting for cooldown expiry.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.nowFunc().Sub(b.lastFailure) >= b.cfg.Cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed. Useful for manual recovery.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = BreakerClosed
	b.failures = 0
	b.probeSuccesses = 0
	if old != BreakerClosed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(old, BreakerClosed)
	}
}

// Snapshot returns the consecutive failure count and raw state for observability.
func (b *Breaker) Snapshot() (failures int, state BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures, b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.nowFunc().Sub(b.lastFailure) >= b.cfg.Cooldown {
			b.transition(BreakerHalfOpen)
			return nil // Allow probe request.
		}
		return ErrBreakerOpen
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shouldTrip := b.cfg.ShouldTrip
	if shouldTrip == nil {
		shouldTrip = func(e error) bool { return e != nil }
	}

	if err == nil || !shouldTrip(err) {
		switch b.state {
		case BreakerHalfOpen:
			b.probeSuccesses++
			if b.probeSuccesses >= b.cfg.ProbeQuota {
				b.transition(BreakerClosed)
				b.failures = 0
				b.probeSuccesses = 0
			}
		case BreakerClosed:
			b.failures = 0
		}
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case BreakerClosed:
		if b.failures >= b.cfg.FailureLimit {
			b.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		// Any failure during a probe reopens the breaker.
		b.transition(BreakerOpen)
		b.probeSuccesses = 0
	}
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// BreakerSet manages circuit breakers for multiple named services.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      BreakerConfig
}

// NewBreakerSet creates a registry of per-service circuit breakers.
func NewBreakerSet(cfg BreakerConfig) *BreakerSet {
	return &BreakerSet{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named service, creating one if needed.
func (s *BreakerSet) Get(service string) *Breaker {
	s.mu.RLock()
	b, ok := s.breakers[service]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock.
	if b, ok = s.breakers[service]; ok {
		return b
	}
	b = NewBreaker(s.cfg)
	s.breakers[service] = b
	return b
}

// States returns a snapshot of all breaker states.
func (s *BreakerSet) States() map[string]BreakerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]BreakerState, len(s.breakers))
	for name, b := range s.breakers {
		states[name] = b.State()
	}
	return states
}
