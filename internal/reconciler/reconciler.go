// Package reconciler repairs product records whose stored asset identifiers
// are malformed or missing. It runs out of band against the record store
// and shares only the identifier utilities of the assets package with the
// live upload path.
//
// Every batch completes: per-record failures are collected into the
// returned Report instead of aborting the run.
package reconciler

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/dmitrijs2005/mediaupload/internal/server/repositories/products"
)

// DefaultBatchLimit caps the records visited by one invocation.
const DefaultBatchLimit = 100

// Uploader is the fallback orchestrator used to re-upload local sources.
type Uploader interface {
	Upload(ctx context.Context, f models.File, opts models.UploadOptions) models.UploadResult
}

// Report aggregates one batch run.
type Report struct {
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Errors    []RecordError `json:"errors"`
}

func (r *Report) fail(recordID string, err error) {
	r.Errors = append(r.Errors, RecordError{RecordID: recordID, Kind: Kind(err), Message: err.Error(), Err: err})
}

// RecordError is the failure of a single record. An empty RecordID marks a
// failure of the batch query itself.
type RecordError struct {
	RecordID string `json:"recordId,omitempty"`
	Kind     string `json:"kind"`
	Message  string `json:"error"`
	Err      error  `json:"-"`
}

func (e RecordError) Error() string { return e.Message }

func (e RecordError) Unwrap() error { return e.Err }

// Kind names the error class of err for reports.
func Kind(err error) string {
	switch {
	case errors.Is(err, common.ErrPersistence):
		return "persistence"
	case errors.Is(err, common.ErrValidation):
		return "validation"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrAborted):
		return "aborted"
	case errors.Is(err, common.ErrSignatureExpired), errors.Is(err, common.ErrProviderRejected):
		return "provider_rejected"
	case errors.Is(err, common.ErrNetwork):
		return "network"
	case errors.Is(err, common.ErrBackend):
		return "backend"
	default:
		return "unknown"
	}
}

type Reconciler struct {
	store      products.Repository
	recognizer assets.Recognizer
	uploader   Uploader
	fetcher    Fetcher
	limit      int
	logger     logging.Logger
}

type Option func(*Reconciler)

// WithUploader enables re-uploading local sources during Recover. Without
// it such records are reported as backend errors.
func WithUploader(u Uploader) Option { return func(r *Reconciler) { r.uploader = u } }

func WithFetcher(f Fetcher) Option { return func(r *Reconciler) { r.fetcher = f } }

func WithBatchLimit(n int) Option { return func(r *Reconciler) { r.limit = n } }

func WithLogger(l logging.Logger) Option { return func(r *Reconciler) { r.logger = l } }

func New(store products.Repository, recognizer assets.Recognizer, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:      store,
		recognizer: recognizer,
		fetcher:    NewHTTPFetcher(nil),
		limit:      DefaultBatchLimit,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limit <= 0 {
		r.limit = DefaultBatchLimit
	}
	r.logger = r.logger.With("module", "reconciler")
	return r
}

// previewFor derives the preview of id. Assets stored at the origin have
// no renditions, so their own URL is used.
func (r *Reconciler) previewFor(id, sourceURL string) string {
	if sourceURL != "" && r.recognizer.IsOrigin(sourceURL) {
		return sourceURL
	}
	return r.recognizer.PreviewURL(id)
}
