package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/worldofhackaton/internal/observability"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type circuitState string

const (
	stateClosed   circuitState = "closed"
	stateOpen     circuitState = "open"
	stateHalfOpen circuitState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// ProtectedNotifier bounds each provider call with a timeout and stops
// calling a failing provider for Cooldown after FailureThreshold
// consecutive failures.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	prom  *observability.Prom
	now   func() time.Time

	mu                  sync.Mutex
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig, prom *observability.Prom) *ProtectedNotifier {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		prom:  prom,
		now:   time.Now,
		state: stateClosed,
	}
}

func (n *ProtectedNotifier) SendWelcome(ctx context.Context, input WelcomeInput) error {
	// fail-fast gate
	if !n.allowRequest() {
		n.observe("circuit_open", 0)
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := n.inner.SendWelcome(sendCtx, input)
	elapsed := time.Since(start)

	n.afterRequest(err)

	if err != nil {
		n.observe("failed", elapsed)
		return err
	}
	n.observe("sent", elapsed)
	return nil
}

func (n *ProtectedNotifier) observe(result string, d time.Duration) {
	if n.prom != nil {
		n.prom.ObserveNotification(result, d)
	}
}

func (n *ProtectedNotifier) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return string(n.state)
}

func (n *ProtectedNotifier) allowRequest() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateClosed:
		return true
	case stateOpen:
		// cooldown has passed? move to half open
		if n.now().Sub(n.openedAt) >= n.cfg.Cooldown {
			n.state = stateHalfOpen
			n.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if n.halfOpenInFlight >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (n *ProtectedNotifier) afterRequest(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// half-open call just finished
	if n.state == stateHalfOpen && n.halfOpenInFlight > 0 {
		n.halfOpenInFlight--
	}

	if err == nil {
		n.consecutiveFailures = 0
		n.state = stateClosed
		return
	}

	n.consecutiveFailures++

	// a failed trial reopens immediately
	if n.state == stateHalfOpen {
		n.state = stateOpen
		n.openedAt = n.now()
		return
	}

	if n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.state = stateOpen
		n.openedAt = n.now()
	}
}
