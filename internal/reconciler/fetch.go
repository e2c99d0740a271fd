package reconciler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFetchBytes bounds a fetched source image.
const DefaultMaxFetchBytes = 25 << 20

// Fetcher loads the bytes behind a source image reference.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (models.File, error)
}

// HTTPFetcher resolves inline data URLs locally and everything else over
// HTTP(S).
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{client: client, maxBytes: DefaultMaxFetchBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) (models.File, error) {
	lower := strings.ToLower(strings.TrimSpace(src))
	switch {
	case strings.HasPrefix(lower, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(lower, "blob:"):
		return models.File{}, errBlobSource
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.get(ctx, src)
	default:
		return models.File{}, fmt.Errorf("%w: unsupported source %q", common.ErrValidation, src)
	}
}

func (f *HTTPFetcher) get(ctx context.Context, src string) (models.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return models.File{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return models.File{}, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		serr := &netx.StatusError{Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 500 {
			return models.File{}, fmt.Errorf("%w: %w", common.ErrNetwork, serr)
		}
		return models.File{}, fmt.Errorf("%w: %w", common.ErrValidation, serr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return models.File{}, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	if int64(len(data)) > f.maxBytes {
		return models.File{}, fmt.Errorf("%w: source exceeds %d bytes", common.ErrValidation, f.maxBytes)
	}

	name := "source"
	if u, err := url.Parse(src); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	return newFile(name, data), nil
}

func decodeDataURL(src string) (models.File, error) {
	_, data, err := netx.DecodeDataURL(src)
	if err != nil {
		return models.File{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	if len(data) == 0 {
		return models.File{}, fmt.Errorf("%w: empty data URL", common.ErrValidation)
	}
	return newFile("recovered", data), nil
}

// newFile sniffs the content type and makes sure the name carries a
// matching extension, which drives strategy selection.
func newFile(name string, data []byte) models.File {
	mt := mimetype.Detect(data)
	if path.Ext(name) == "" {
		name += mt.Extension()
	}
	return models.NewFile(name, mt.String(), data)
}
