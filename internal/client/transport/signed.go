package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

// SignatureProvider issues short-lived signed upload credentials.
type SignatureProvider interface {
	RequestSignature(ctx context.Context, dest models.Destination) (models.UploadSignature, error)
}

// DirectSigned posts the file straight to the storage provider with a
// signature fetched for every attempt.
type DirectSigned struct {
	signer  SignatureProvider
	client  *http.Client
	timeout time.Duration
	handle  inflight
}

func NewDirectSigned(signer SignatureProvider, client *http.Client) *DirectSigned {
	if client == nil {
		client = &http.Client{}
	}
	return &DirectSigned{signer: signer, client: client, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-attempt timeout.
func (s *DirectSigned) WithTimeout(d time.Duration) *DirectSigned {
	s.timeout = d
	return s
}

func (s *DirectSigned) Method() models.Method { return models.MethodDirectSigned }

func (s *DirectSigned) Supports(f models.File) bool { return !f.NeedsConversion() }

func (s *DirectSigned) Abort() { s.handle.abort() }

func (s *DirectSigned) Upload(ctx context.Context, req Request) models.UploadResult {
	ctx, done := s.handle.begin(ctx, s.timeout)
	defer done()

	sig, err := s.signer.RequestSignature(ctx, req.Destination)
	if err != nil {
		return models.Failed(s.Method(), classify(ctx, err))
	}

	fields := []field{
		{"api_key", sig.APIKey},
		{"timestamp", strconv.FormatInt(sig.Timestamp, 10)},
		{"public_id", sig.PublicID},
		{"folder", sig.Folder},
		{"signature", sig.Signature},
	}
	if sig.Transformation != "" {
		fields = append(fields, field{"transformation", sig.Transformation})
	}

	tracker := newProgressTracker(req)
	pr, err := postMultipart(ctx, s.client, sig.UploadURL, fields, req.File, tracker.set)
	if err != nil {
		return models.Failed(s.Method(), classify(ctx, err))
	}
	return pr.result(s.Method(), false)
}
