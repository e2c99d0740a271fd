// Package common defines shared constants and sentinel errors used across
// the uploader, the trusted backend and the reconciler. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Transport errors.
	ErrNetwork = errors.New("network error")
	// ErrTimeout is a network error caused by the per-attempt deadline.
	ErrTimeout = fmt.Errorf("%w: timeout", ErrNetwork)
	// ErrAborted marks a caller-cancelled attempt. It is not a failure.
	ErrAborted = errors.New("upload aborted")

	// Backend errors (signing endpoint, proxy endpoint, malformed payloads).
	ErrBackend      = errors.New("backend error")
	ErrUnauthorized = errors.New("unauthorized")

	// Storage provider errors.
	ErrProviderRejected = errors.New("provider rejected upload")
	// ErrSignatureExpired is kept apart from ErrProviderRejected so callers
	// re-sign instead of replaying the same credentials.
	ErrSignatureExpired = errors.New("upload signature expired")

	// Reconciliation errors.
	ErrValidation = errors.New("validation error")
	// ErrPersistence means the remote upload succeeded but the record store
	// write failed afterwards, leaving an orphaned remote asset.
	ErrPersistence = errors.New("persistence error")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
