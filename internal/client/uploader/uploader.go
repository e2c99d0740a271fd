// Package uploader implements the fallback orchestrator: it walks the
// transport strategies in priority order, wraps each in the retry
// controller and resolves every call to exactly one models.UploadResult.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/client/progress"
	"github.com/dmitrijs2005/mediaupload/internal/client/retry"
	"github.com/dmitrijs2005/mediaupload/internal/client/transport"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
)

var (
	ErrExhausted   = errors.New("all upload strategies failed")
	ErrUnsupported = errors.New("no upload strategy supports this file")
)

// Environment reports the connectivity facts attached to failure diagnostics.
type Environment interface {
	Online() bool
	NetworkType() string
}

// DiagnosticsSink persists failure bundles.
type DiagnosticsSink interface {
	Save(ctx context.Context, d models.Diagnostics) error
}

type staticEnvironment struct{}

func (staticEnvironment) Online() bool        { return true }
func (staticEnvironment) NetworkType() string { return "unknown" }

type Uploader struct {
	strategies []transport.Strategy
	policy     retry.Policy
	env        Environment
	sink       DiagnosticsSink
	observer   Observer
	logger     logging.Logger
	now        func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

type Option func(*Uploader)

func WithPolicy(p retry.Policy) Option { return func(u *Uploader) { u.policy = p } }

func WithEnvironment(env Environment) Option { return func(u *Uploader) { u.env = env } }

func WithDiagnosticsSink(s DiagnosticsSink) Option { return func(u *Uploader) { u.sink = s } }

func WithObserver(o Observer) Option { return func(u *Uploader) { u.observer = o } }

func WithLogger(l logging.Logger) Option { return func(u *Uploader) { u.logger = l } }

func WithClock(now func() time.Time) Option { return func(u *Uploader) { u.now = now } }

// New builds an orchestrator over strategies, tried in the given order.
// One Uploader serves one logical upload at a time.
func New(strategies []transport.Strategy, opts ...Option) *Uploader {
	u := &Uploader{
		strategies: strategies,
		policy:     retry.DefaultPolicy(),
		env:        staticEnvironment{},
		observer:   nopObserver{},
		logger:     logging.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With("module", "uploader")
	return u
}

// Abort cancels the in-flight upload, which then resolves with Aborted set.
func (u *Uploader) Abort() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		u.cancel(common.ErrAborted)
	}
}

func (u *Uploader) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel(fmt.Errorf("%w: superseded by a newer upload", common.ErrAborted))
	}
	u.seq++
	seq := u.seq
	u.cancel = cancel
	u.mu.Unlock()

	return ctx, func() {
		u.mu.Lock()
		if u.seq == seq {
			u.cancel = nil
		}
		u.mu.Unlock()
		cancel(nil)
	}
}

// Upload moves f into storage. It always returns a result: success, an
// aggregated failure with diagnostics, or an aborted result.
func (u *Uploader) Upload(ctx context.Context, f models.File, opts models.UploadOptions) (res models.UploadResult) {
	ctx, done := u.begin(ctx)
	defer done()

	defer func() {
		if r := recover(); r != nil {
			u.logger.Error(ctx, "upload panicked", "file", f.Name, "panic", r)
			res = models.Failed(res.Method, fmt.Errorf("upload panicked: %v", r))
		}
	}()

	norm := progress.NewNormalizer(opts.OnProgress)
	var (
		records []models.AttemptRecord
		errs    []error
		last    models.Method
	)

	for _, s := range u.strategies {
		if !s.Supports(f) {
			continue
		}
		if ctx.Err() != nil {
			return u.aborted(ctx, last, records)
		}

		method := s.Method()
		last = method
		norm.Begin(method)

		r, attempts := retry.Do(ctx, u.policy, func(ctx context.Context, attempt int) models.UploadResult {
			if attempt > 1 {
				u.logger.Info(ctx, "retrying", "method", method, "attempt", attempt)
			}
			started := u.now()
			r := s.Upload(ctx, transport.Request{
				File:        f,
				Destination: opts.Destination,
				OnProgress:  norm.Update,
			})
			u.observer.RecordAttempt(method, u.now().Sub(started), outcomeOf(r))
			if !r.Success && !r.Aborted {
				u.logger.Debug(ctx, "attempt failed", "method", method, "attempt", attempt, "error", r.Err)
			}
			return r
		})

		if r.Success {
			norm.Complete()
			r.Method = method
			r.Attempts = records
			u.observer.RecordUpload(method, f.Size, true)
			u.logger.Info(ctx, "upload finished", "file", f.Name, "method", method, "fallbacks", len(records))
			return r
		}
		if r.Aborted {
			return u.aborted(ctx, method, records)
		}

		u.logger.Warn(ctx, "strategy exhausted", "method", method, "attempts", attempts, "error", r.Err)
		records = append(records, models.AttemptRecord{Method: method, Error: r.Err.Error(), Attempts: attempts})
		errs = append(errs, fmt.Errorf("%s: %w", method, r.Err))
	}

	if len(records) == 0 {
		if ctx.Err() != nil {
			return u.aborted(ctx, last, nil)
		}
		return u.fail(ctx, f, last, fmt.Errorf("%w: %s (%s)", ErrUnsupported, f.Name, f.MimeType), nil)
	}
	return u.fail(ctx, f, last, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...)), records)
}

func (u *Uploader) aborted(ctx context.Context, method models.Method, records []models.AttemptRecord) models.UploadResult {
	u.logger.Info(ctx, "upload aborted", "method", method)
	res := models.Failed(method, common.ErrAborted)
	res.Attempts = records
	return res
}

func (u *Uploader) fail(ctx context.Context, f models.File, method models.Method, err error, records []models.AttemptRecord) models.UploadResult {
	diag := models.Diagnostics{
		Online:      u.env.Online(),
		NetworkType: u.env.NetworkType(),
		FileName:    f.Name,
		FileSize:    f.Size,
		Attempts:    records,
		CreatedAt:   u.now().UTC(),
	}

	if u.sink != nil {
		if serr := u.sink.Save(context.WithoutCancel(ctx), diag); serr != nil {
			u.logger.Error(ctx, "failed to persist diagnostics", "error", serr)
		}
	}

	u.observer.RecordUpload(method, f.Size, false)

	res := models.Failed(method, err)
	res.Attempts = records
	res.Diagnostics = &diag
	u.logger.Error(ctx, "upload failed", "file", f.Name, "summary", res.Summary())
	return res
}
