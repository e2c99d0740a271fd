package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/common"
)

// mapError converts transport failures into the shared sentinels. An
// unreachable backend is both a backend and a network error.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), common.ErrAborted) {
		return common.ErrAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrBackend, common.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return common.ErrAborted
	}
	return fmt.Errorf("%w: %w: %v", common.ErrBackend, common.ErrNetwork, err)
}

// mapStatus converts a non-2xx backend reply into a sentinel-wrapped error.
func mapStatus(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", common.ErrBackend, common.ErrNotFound, msg)
	case code >= 500:
		return fmt.Errorf("%w: %w: status %d: %s", common.ErrBackend, common.ErrNetwork, code, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", common.ErrBackend, code, msg)
	}
}
