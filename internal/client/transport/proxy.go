package transport

import (
	"context"
	"net/url"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/client/progress"
	"github.com/dmitrijs2005/mediaupload/internal/cryptox"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
)

// ProxyUploader is the backend endpoint that performs the whole transfer.
type ProxyUploader interface {
	ProxyUpload(ctx context.Context, req models.ProxyRequest) (models.ProxyResponse, error)
}

// Proxied hands the file to the trusted backend. No byte progress is
// observable, so progress is synthesized.
type Proxied struct {
	backend  ProxyUploader
	timeout  time.Duration
	interval time.Duration
	handle   inflight
}

func NewProxied(backend ProxyUploader) *Proxied {
	return &Proxied{backend: backend, timeout: DefaultTimeout, interval: progress.DefaultSynthesizeInterval}
}

func (s *Proxied) WithTimeout(d time.Duration) *Proxied {
	s.timeout = d
	return s
}

// WithInterval sets the synthesized progress tick.
func (s *Proxied) WithInterval(d time.Duration) *Proxied {
	s.interval = d
	return s
}

func (s *Proxied) Method() models.Method { return models.MethodProxy }

func (s *Proxied) Supports(models.File) bool { return true }

func (s *Proxied) Abort() { s.handle.abort() }

// DataURL encodes f as an RFC 2397 data URL.
func DataURL(f models.File) string {
	return netx.EncodeDataURL(f.MimeType, f.Data)
}

func (s *Proxied) Upload(ctx context.Context, req Request) models.UploadResult {
	ctx, done := s.handle.begin(ctx, s.timeout)
	defer done()

	tracker := newProgressTracker(req)
	tracker.set(0)
	stop := progress.Synthesize(ctx, s.interval, tracker.set)
	defer stop()

	resp, err := s.backend.ProxyUpload(ctx, models.ProxyRequest{
		Source:   DataURL(req.File),
		FileName: req.File.Name,
		MimeType: req.File.MimeType,
		Folder:   req.Destination.ResolveFolder(),
		OrderID:  req.Destination.OrderID,
		Digest:   cryptox.Digest(req.File.Data),
	})
	if err != nil {
		return models.Failed(s.Method(), classify(ctx, err))
	}

	id := assets.Clean(resp.PublicID)
	if id == "" {
		id = identifierFromURL(resp.MainImageURL)
	}
	return models.Succeeded(s.Method(), resp.MainImageURL, id)
}

// identifierFromURL is the last-resort identifier when a backend reply
// carries only a URL.
func identifierFromURL(u string) string {
	var r assets.Recognizer
	if id, ok := r.Identify(u); ok {
		return id
	}
	if parsed, err := url.Parse(u); err == nil {
		return assets.Clean(parsed.Path)
	}
	return ""
}
