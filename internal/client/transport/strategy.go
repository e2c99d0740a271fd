// Package transport implements the concrete ways of moving a file into
// storage: direct signed and unsigned uploads to the storage provider, the
// backend-proxied upload, and the origin-storage fallback.
//
// Every strategy returns the same models.UploadResult, normalizes the
// asset identifier through assets.Clean, and keeps a single in-flight
// handle: a new Upload on the same instance supersedes the previous one,
// and Abort cancels it with common.ErrAborted.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
)

const (
	DefaultTimeout           = 120 * time.Second
	DefaultConversionTimeout = 180 * time.Second
)

// Request is one attempt's input. OnProgress receives the strategy's own
// 0..100 percentage and may be nil.
type Request struct {
	File        models.File
	Destination models.Destination
	OnProgress  func(percent int)
}

func (r Request) report(p int) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

type Strategy interface {
	Method() models.Method
	Supports(f models.File) bool
	Upload(ctx context.Context, req Request) models.UploadResult
	Abort()
}

var errSuperseded = fmt.Errorf("%w: superseded by a newer upload", common.ErrAborted)

// inflight tracks the one outstanding attempt of a strategy instance.
type inflight struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

// begin derives the attempt context with its per-attempt timeout and
// supersedes any attempt still running. The returned func must be called
// when the attempt ends.
func (h *inflight) begin(parent context.Context, timeout time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	tctx, tcancel := context.WithTimeoutCause(ctx, timeout, fmt.Errorf("%w after %s", common.ErrTimeout, timeout))

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel(errSuperseded)
	}
	h.seq++
	seq := h.seq
	h.cancel = cancel
	h.mu.Unlock()

	return tctx, func() {
		tcancel()
		h.mu.Lock()
		if h.seq == seq {
			h.cancel = nil
		}
		h.mu.Unlock()
		cancel(nil)
	}
}

func (h *inflight) abort() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel(common.ErrAborted)
		h.cancel = nil
	}
}

// classify turns an attempt failure into one of the terminal states:
// aborted, timed out, or a typed error. Errors already carrying a sentinel
// are kept; anything else is a network error.
func classify(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		switch {
		case errors.Is(cause, common.ErrAborted), errors.Is(cause, common.ErrTimeout):
			return cause
		case errors.Is(cause, context.DeadlineExceeded):
			return fmt.Errorf("%w: %v", common.ErrTimeout, cause)
		case errors.Is(cause, context.Canceled):
			return common.ErrAborted
		}
		return fmt.Errorf("%w: %v", common.ErrAborted, cause)
	}

	for _, typed := range []error{
		common.ErrAborted,
		common.ErrNetwork,
		common.ErrBackend,
		common.ErrProviderRejected,
		common.ErrSignatureExpired,
		common.ErrUnauthorized,
	} {
		if errors.Is(err, typed) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrNetwork, err)
}

// progressTracker forwards only changed, non-decreasing percentages.
type progressTracker struct {
	mu   sync.Mutex
	last int
	req  Request
}

func newProgressTracker(req Request) *progressTracker {
	return &progressTracker{last: -1, req: req}
}

func (t *progressTracker) set(p int) {
	t.mu.Lock()
	if p <= t.last {
		t.mu.Unlock()
		return
	}
	t.last = p
	t.mu.Unlock()
	t.req.report(p)
}
