package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
)

// DefaultSignatureWindow mirrors the provider's acceptance window for
// signed request timestamps.
const DefaultSignatureWindow = time.Hour

var _ Client = (*HTTPClient)(nil)

type HTTPClient struct {
	baseURL         string
	httpClient      *http.Client
	signatureWindow time.Duration
	now             func() time.Time

	mu          sync.RWMutex
	accessToken string
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithSignatureWindow overrides DefaultSignatureWindow.
func WithSignatureWindow(d time.Duration) Option {
	return func(h *HTTPClient) { h.signatureWindow = d }
}

// WithAccessToken presets the bearer token, e.g. from configuration.
func WithAccessToken(token string) Option {
	return func(h *HTTPClient) { h.accessToken = token }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(h *HTTPClient) { h.now = now }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{},
		signatureWindow: DefaultSignatureWindow,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetAccessToken replaces the bearer token used on subsequent calls.
func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

func (c *HTTPClient) Logout() {
	c.SetAccessToken("")
}

// Login exchanges credentials for an access token and keeps it for later calls.
func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) error {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/token", loginRequest{Username: username, Password: string(password)}, &resp, nil); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", common.ErrBackend)
	}
	c.SetAccessToken(resp.AccessToken)
	return nil
}

type pingResponse struct {
	Status string `json:"status"`
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp pingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp, nil); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: status %q", common.ErrBackend, resp.Status)
	}
	return nil
}

type signatureRequest struct {
	Folder    string `json:"folder"`
	OrderID   string `json:"orderId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ProductID string `json:"productId,omitempty"`
}

// RequestSignature fetches short-lived signed upload credentials for dest.
func (c *HTTPClient) RequestSignature(ctx context.Context, dest models.Destination) (models.UploadSignature, error) {
	req := signatureRequest{
		Folder:    dest.ResolveFolder(),
		OrderID:   dest.OrderID,
		SessionID: dest.SessionID,
		ProductID: dest.ProductID,
	}

	var sig models.UploadSignature
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/signatures", req, &sig, nil); err != nil {
		return models.UploadSignature{}, err
	}
	if !sig.Complete() {
		return models.UploadSignature{}, fmt.Errorf("%w: incomplete signature payload", common.ErrBackend)
	}
	if sig.Expired(c.now(), c.signatureWindow) {
		return models.UploadSignature{}, fmt.Errorf("%w: issued at %d", common.ErrSignatureExpired, sig.Timestamp)
	}
	return sig, nil
}

type presignRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Folder   string `json:"folder"`
}

func (c *HTTPClient) PresignStorage(ctx context.Context, fileName, mimeType, folder string) (models.StoragePresign, error) {
	var p models.StoragePresign
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/storage/presign", presignRequest{FileName: fileName, MimeType: mimeType, Folder: folder}, &p, nil)
	if err != nil {
		return models.StoragePresign{}, err
	}
	if p.UploadURL == "" || p.Key == "" {
		return models.StoragePresign{}, fmt.Errorf("%w: incomplete presign payload", common.ErrBackend)
	}
	return p, nil
}

// ProxyUpload hands the whole transfer to the backend. A reply with
// success=false is returned as an error carrying the backend message.
func (c *HTTPClient) ProxyUpload(ctx context.Context, req models.ProxyRequest) (models.ProxyResponse, error) {
	headers := map[string]string{}
	if req.Digest != "" {
		headers[common.ContentDigestHeaderName] = req.Digest
	}

	var resp models.ProxyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads/proxy", req, &resp, headers); err != nil {
		return models.ProxyResponse{}, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "proxy reported failure"
		}
		return resp, fmt.Errorf("%w: %s", common.ErrBackend, msg)
	}
	if resp.MainImageURL == "" {
		return resp, fmt.Errorf("%w: proxy reply without url", common.ErrBackend)
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", common.ErrBackend, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mapError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", common.ErrBackend, err)
	}
	return nil
}
