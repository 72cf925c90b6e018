// Package connectivity tracks whether the remote menu store is reachable.
//
// The [Monitor] probes the remote health endpoint on a fixed interval and
// publishes online/offline transitions on a channel. Consumers treat the
// published state as a hint only: the sync engine still discovers the truth
// per-operation and must behave correctly even when the hint is stale.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dishcraft/menusync/internal/logger"
)

// Status is the reachability state last observed by the monitor.
type Status int

const (
	// StatusUnknown is the state before the first probe completes.
	StatusUnknown Status = iota

	// StatusOnline means the last probe reached the remote health endpoint.
	StatusOnline

	// StatusOffline means the last probe failed.
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Prober is the health probe the monitor polls. It is satisfied by the
// remote gateway.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor polls a [Prober] and publishes reachability transitions. It is idle
// until Start is called.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	wg     sync.WaitGroup

	events chan Status
}

// NewMonitor creates a monitor polling prober every interval, bounding each
// probe by timeout.
func NewMonitor(prober Prober, interval, timeout time.Duration, logger *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		status:   StatusUnknown,
		events:   make(chan Status, 1),
	}
}

// Status returns the reachability state observed by the most recent probe.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Events returns the channel on which reachability transitions are published.
// Only actual transitions are sent; repeated probes with an unchanged result
// are silent. The channel is buffered and never blocks the monitor: when the
// consumer lags, intermediate transitions are dropped in favour of the latest.
func (m *Monitor) Events() <-chan Status {
	return m.events
}

// Probe performs a single reachability probe, updates the observed status, and
// publishes a transition event if the status changed. It returns the fresh
// status. The probe shares the budget of a single cheap request; it is safe to
// call concurrently with the periodic loop.
func (m *Monitor) Probe(ctx context.Context) Status {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	next := StatusOnline
	if err := m.prober.Health(probeCtx); err != nil {
		next = StatusOffline
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if prev != next {
		m.logger.Info().
			Str("from", prev.String()).
			Str("to", next.String()).
			Msg("connectivity transition")
		m.publish(next)
	}

	return next
}

// Start stops any previously running loop, then launches a background
// goroutine probing every interval. The goroutine exits when ctx is cancelled
// or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.Stop()

	m.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		// first probe immediately so consumers do not wait a full interval
		m.Probe(loopCtx)

		t := time.NewTicker(m.interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				m.Probe(loopCtx)
			}
		}
	}()
}

// Stop cancels the background goroutine and blocks until it has fully exited.
// Safe to call when the monitor is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Run implements the background worker contract: it starts the periodic loop
// detached from any caller lifecycle.
func (m *Monitor) Run() {
	m.Start(context.Background())
}

func (m *Monitor) publish(s Status) {
	for {
		select {
		case m.events <- s:
			return
		default:
			// consumer lags; drop the stale transition
			select {
			case <-m.events:
			default:
			}
		}
	}
}
