package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/client/progress"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
)

// StoragePresigner issues presigned PUT URLs into the origin object storage.
type StoragePresigner interface {
	PresignStorage(ctx context.Context, fileName, mimeType, folder string) (models.StoragePresign, error)
}

// OriginStorage writes the raw bytes into the application's own object
// storage. It is the last strategy and accepts every file.
type OriginStorage struct {
	presigner StoragePresigner
	client    *http.Client
	timeout   time.Duration
	interval  time.Duration
	handle    inflight
}

func NewOriginStorage(presigner StoragePresigner, client *http.Client) *OriginStorage {
	if client == nil {
		client = &http.Client{}
	}
	return &OriginStorage{
		presigner: presigner,
		client:    client,
		timeout:   DefaultTimeout,
		interval:  progress.DefaultSynthesizeInterval,
	}
}

func (s *OriginStorage) WithTimeout(d time.Duration) *OriginStorage {
	s.timeout = d
	return s
}

func (s *OriginStorage) WithInterval(d time.Duration) *OriginStorage {
	s.interval = d
	return s
}

func (s *OriginStorage) Method() models.Method { return models.MethodOriginStorage }

func (s *OriginStorage) Supports(models.File) bool { return true }

func (s *OriginStorage) Abort() { s.handle.abort() }

func (s *OriginStorage) Upload(ctx context.Context, req Request) models.UploadResult {
	ctx, done := s.handle.begin(ctx, s.timeout)
	defer done()

	tracker := newProgressTracker(req)
	tracker.set(0)
	stop := progress.Synthesize(ctx, s.interval, tracker.set)
	defer stop()

	p, err := s.presigner.PresignStorage(ctx, req.File.Name, req.File.MimeType, req.Destination.ResolveFolder())
	if err != nil {
		return models.Failed(s.Method(), classify(ctx, err))
	}

	if err := netx.PutPresigned(ctx, s.client, p.UploadURL, req.File.MimeType, req.File.Data); err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			if se.Code >= 500 {
				err = fmt.Errorf("%w: %v", common.ErrNetwork, se)
			} else {
				err = fmt.Errorf("%w: %v", common.ErrProviderRejected, se)
			}
		}
		return models.Failed(s.Method(), classify(ctx, err))
	}

	return models.Succeeded(s.Method(), p.PublicURL, assets.Clean(p.Key))
}
