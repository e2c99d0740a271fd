// Package netx contains HTTP helpers used by the upload transports.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// StatusError is returned when the remote side answers with a non-2xx code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: %d %s; body: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// ProgressReader reports the cumulative number of bytes read from R.
type ProgressReader struct {
	R      io.Reader
	Total  int64
	OnRead func(loaded, total int64)

	mu     sync.Mutex
	loaded int64
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.loaded += int64(n)
		loaded := p.loaded
		p.mu.Unlock()
		if p.OnRead != nil {
			p.OnRead(loaded, p.Total)
		}
	}
	return n, err
}

// Percent is floor(loaded/total*100) clamped to [0, 100].
func Percent(loaded, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(loaded * 100 / total)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// PutPresigned uploads data to a presigned object-storage URL.
func PutPresigned(ctx context.Context, client *http.Client, url, contentType string, data []byte) error {
	if client == nil {
		client = http.DefaultClient
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return nil
}
