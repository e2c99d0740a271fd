package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
)

// providerResponse is the storage provider's upload reply.
type providerResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
	Eager     []struct {
		SecureURL string `json:"secure_url"`
	} `json:"eager"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type field struct {
	name, value string
}

// postMultipart sends fields plus the file part to url and reports byte
// level progress of the request body.
func postMultipart(ctx context.Context, client *http.Client, url string, fields []field, f models.File, progress func(int)) (*providerResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, fl := range fields {
		if err := mw.WriteField(fl.name, fl.value); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(f.Data); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	total := int64(body.Len())
	reader := &netx.ProgressReader{
		R:     &body,
		Total: total,
		OnRead: func(loaded, total int64) {
			if progress != nil {
				progress(netx.Percent(loaded, total))
			}
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackend, err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var pr providerResponse
	decodeErr := json.Unmarshal(data, &pr)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: provider status %d", common.ErrNetwork, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && pr.Error != nil {
			msg = pr.Error.Message
		}
		return nil, rejection(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: malformed provider response: %v", common.ErrBackend, decodeErr)
	}
	if pr.SecureURL == "" || pr.PublicID == "" {
		return nil, fmt.Errorf("%w: provider response without url", common.ErrBackend)
	}
	return &pr, nil
}

// rejection classifies a 4xx provider reply. Stale timestamps get their own
// sentinel so the caller can re-sign instead of retrying blindly.
func rejection(code int, msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "stale request") || strings.Contains(lower, "signature expired") {
		return fmt.Errorf("%w: %s", common.ErrSignatureExpired, msg)
	}
	return fmt.Errorf("%w: status %d: %s", common.ErrProviderRejected, code, msg)
}

func (pr *providerResponse) result(method models.Method, preferEager bool) models.UploadResult {
	url := pr.SecureURL
	if preferEager && len(pr.Eager) > 0 && pr.Eager[0].SecureURL != "" {
		url = pr.Eager[0].SecureURL
	}
	return models.Succeeded(method, url, assets.Clean(pr.PublicID))
}
