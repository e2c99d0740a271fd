package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

// DefaultEager asks the provider for a browser-friendly rendition at upload
// time.
const DefaultEager = "f_jpg,q_auto"

// DirectUnsigned uploads formats needing server-side conversion through a
// pre-provisioned unsigned preset.
type DirectUnsigned struct {
	uploadURL string
	preset    string
	eager     string
	client    *http.Client
	timeout   time.Duration
	handle    inflight
}

func NewDirectUnsigned(uploadURL, preset string, client *http.Client) *DirectUnsigned {
	if client == nil {
		client = &http.Client{}
	}
	return &DirectUnsigned{
		uploadURL: uploadURL,
		preset:    preset,
		eager:     DefaultEager,
		client:    client,
		timeout:   DefaultConversionTimeout,
	}
}

func (s *DirectUnsigned) WithTimeout(d time.Duration) *DirectUnsigned {
	s.timeout = d
	return s
}

func (s *DirectUnsigned) WithEager(eager string) *DirectUnsigned {
	s.eager = eager
	return s
}

func (s *DirectUnsigned) Method() models.Method { return models.MethodDirectUnsigned }

func (s *DirectUnsigned) Supports(f models.File) bool {
	return f.NeedsConversion() && s.uploadURL != "" && s.preset != ""
}

func (s *DirectUnsigned) Abort() { s.handle.abort() }

func (s *DirectUnsigned) Upload(ctx context.Context, req Request) models.UploadResult {
	ctx, done := s.handle.begin(ctx, s.timeout)
	defer done()

	fields := []field{
		{"upload_preset", s.preset},
		{"folder", req.Destination.ResolveFolder()},
	}
	if s.eager != "" {
		fields = append(fields, field{"eager", s.eager})
	}

	tracker := newProgressTracker(req)
	pr, err := postMultipart(ctx, s.client, s.uploadURL, fields, req.File, tracker.set)
	if err != nil {
		return models.Failed(s.Method(), classify(ctx, err))
	}
	return pr.result(s.Method(), true)
}
