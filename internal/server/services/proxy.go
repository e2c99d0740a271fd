package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/cryptox"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
)

// ObjectStore is the origin storage used by the proxy and presign endpoints.
type ObjectStore interface {
	PresignPut(ctx context.Context, fileName, mimeType, folder string) (Presign, error)
	Put(ctx context.Context, folder, fileName, mimeType string, data []byte) (key, publicURL string, err error)
}

// ProxyRequest is a whole file handed over by a client that cannot upload
// directly.
type ProxyRequest struct {
	Source   string `json:"source"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Folder   string `json:"folder"`
	OrderID  string `json:"orderId,omitempty"`
}

type ProxyResponse struct {
	Success        bool   `json:"success"`
	MainImageURL   string `json:"mainImageUrl"`
	PublicID       string `json:"publicId"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize"`
	Error          string `json:"error,omitempty"`
}

// ProxyService stores proxied uploads in the origin storage.
type ProxyService struct {
	store    ObjectStore
	maxBytes int64
}

func NewProxyService(store ObjectStore, maxBytes int64) *ProxyService {
	return &ProxyService{store: store, maxBytes: maxBytes}
}

// Upload decodes the data URL source, checks the optional digest and
// stores the payload. Input problems wrap common.ErrValidation, storage
// failures common.ErrBackend.
func (s *ProxyService) Upload(ctx context.Context, req ProxyRequest, digest string) (ProxyResponse, error) {
	mediaType, data, err := netx.DecodeDataURL(req.Source)
	if err != nil {
		return ProxyResponse{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	if len(data) == 0 {
		return ProxyResponse{}, fmt.Errorf("%w: empty payload", common.ErrValidation)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return ProxyResponse{}, fmt.Errorf("%w: payload of %d bytes exceeds %d", common.ErrValidation, len(data), s.maxBytes)
	}
	if digest != "" {
		if err := cryptox.VerifyDigest(data, digest); err != nil {
			return ProxyResponse{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = mediaType
	}
	folder := req.Folder
	if folder == "" && req.OrderID != "" {
		folder = "orders/" + req.OrderID
	}

	key, publicURL, err := s.store.Put(ctx, strings.Trim(folder, "/"), req.FileName, mimeType, data)
	if err != nil {
		return ProxyResponse{}, fmt.Errorf("%w: store object: %w", common.ErrBackend, err)
	}

	return ProxyResponse{
		Success:        true,
		MainImageURL:   publicURL,
		PublicID:       key,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(data)),
	}, nil
}
