// Package connectivity watches whether the backend is reachable and
// classifies the effective network type from probe round-trip times.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/logging"
)

const (
	NetworkOffline = "offline"
	NetworkSlow2G  = "slow-2g"
	Network2G      = "2g"
	Network3G      = "3g"
	Network4G      = "4g"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 3 * time.Second
)

// Prober checks backend reachability once.
type Prober interface {
	Check(ctx context.Context) error
}

// ProberFunc adapts a function such as HTTPClient.Ping to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Check(ctx context.Context) error { return f(ctx) }

// ClassifyRTT maps a round-trip time to an effective network type using
// the Network Information API thresholds.
func ClassifyRTT(rtt time.Duration) string {
	switch {
	case rtt < 270*time.Millisecond:
		return Network4G
	case rtt < 1400*time.Millisecond:
		return Network3G
	case rtt < 2000*time.Millisecond:
		return Network2G
	default:
		return NetworkSlow2G
	}
}

type Monitor struct {
	probers  []Prober
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
	now      func() time.Time

	mu          sync.RWMutex
	online      bool
	known       bool
	rtt         time.Duration
	subscribers []func(online bool)
}

// NewMonitor probes with each prober in turn; the first success counts.
func NewMonitor(interval, timeout time.Duration, logger logging.Logger, probers ...Prober) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Monitor{
		probers:  probers,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("module", "connectivity"),
		now:      time.Now,
	}
}

// Subscribe registers fn for online/offline transitions. fn runs on the
// probing goroutine and must not block.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) NetworkType() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.online {
		return NetworkOffline
	}
	return ClassifyRTT(m.rtt)
}

// Probe runs one check, updates the state and notifies subscribers on a
// transition. The first probe always notifies.
func (m *Monitor) Probe(ctx context.Context) bool {
	started := m.now()
	err := m.check(ctx)
	rtt := m.now().Sub(started)
	online := err == nil

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	if online {
		m.rtt = rtt
	}
	subs := append([]func(bool){}, m.subscribers...)
	m.mu.Unlock()

	if changed {
		if online {
			m.logger.Info(ctx, "Switched to online mode", "rtt", rtt)
		} else {
			m.logger.Warn(ctx, "Switched to offline mode", "error", err)
		}
		for _, fn := range subs {
			fn(online)
		}
	}
	return online
}

func (m *Monitor) check(ctx context.Context) error {
	if len(m.probers) == 0 {
		return errors.New("no probers configured")
	}
	var errs []error
	for _, p := range m.probers {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.Check(pctx)
		cancel()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
