// Package progress turns per-transport progress signals, real or
// synthesized, into the single percentage reported to callers.
//
// Policy: every strategy gets the 0..StrategyCeiling sub-range; progress is
// monotonic while one strategy is active, restarts from 0 when the
// orchestrator switches strategies, and jumps to 100 only on confirmed
// success.
package progress

import (
	"sync"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

// StrategyCeiling is the highest percentage a strategy can report before the
// orchestrator confirms completion.
const StrategyCeiling = 95

// Normalizer rescales strategy-local progress. It is safe for concurrent use.
type Normalizer struct {
	mu     sync.Mutex
	report models.ProgressFunc
	method models.Method
	last   int
	done   bool
}

// NewNormalizer returns a Normalizer forwarding to report. A nil report is
// allowed and turns every call into a no-op.
func NewNormalizer(report models.ProgressFunc) *Normalizer {
	return &Normalizer{report: report, last: -1}
}

// Begin starts the sub-range of a new strategy and reports 0.
func (n *Normalizer) Begin(method models.Method) {
	n.mu.Lock()
	n.method = method
	n.last = 0
	n.done = false
	n.mu.Unlock()
	n.emit(0, method)
}

// Update takes a strategy-local percentage (0..100).
func (n *Normalizer) Update(percent int) {
	n.mu.Lock()
	if n.done {
		n.mu.Unlock()
		return
	}
	scaled := clamp(percent, 0, 100) * StrategyCeiling / 100
	if scaled <= n.last {
		n.mu.Unlock()
		return
	}
	n.last = scaled
	method := n.method
	n.mu.Unlock()
	n.emit(scaled, method)
}

// Complete reports 100 for the active method. Later updates are ignored.
func (n *Normalizer) Complete() {
	n.mu.Lock()
	if n.done {
		n.mu.Unlock()
		return
	}
	n.done = true
	n.last = 100
	method := n.method
	n.mu.Unlock()
	n.emit(100, method)
}

// Last returns the last reported percentage, -1 before Begin.
func (n *Normalizer) Last() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

func (n *Normalizer) emit(percent int, method models.Method) {
	if n.report != nil {
		n.report(percent, method)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
