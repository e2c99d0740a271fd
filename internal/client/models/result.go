package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/common"
)

// Method tags the transport strategy that produced a result.
type Method string

const (
	MethodDirectSigned   Method = "direct_signed"
	MethodDirectUnsigned Method = "direct_unsigned"
	MethodProxy          Method = "proxy"
	MethodOriginStorage  Method = "origin_storage"
	// MethodQueued marks results delivered by the offline queue replay.
	MethodQueued Method = "queued"
)

// ProgressFunc receives the externally reported percentage and the method
// currently moving bytes.
type ProgressFunc func(percent int, method Method)

// UploadOptions configures one orchestrated upload.
type UploadOptions struct {
	Destination Destination
	OnProgress  ProgressFunc
}

// AttemptRecord is appended when a strategy exhausts its retries.
type AttemptRecord struct {
	Method   Method `json:"method"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}

// Diagnostics is the bundle attached to a total failure and persisted
// locally for support.
type Diagnostics struct {
	Online      bool            `json:"online"`
	NetworkType string          `json:"network_type"`
	FileName    string          `json:"file_name"`
	FileSize    int64           `json:"file_size"`
	Attempts    []AttemptRecord `json:"attempts"`
	CreatedAt   time.Time       `json:"created_at"`
}

// UploadResult is the single tagged result shared by every transport
// strategy and the orchestrator. Exactly one of Success or Err is set;
// Aborted results carry ErrAborted and are not failures.
type UploadResult struct {
	Success     bool
	URL         string
	Identifier  string
	Method      Method
	Err         error
	Aborted     bool
	Attempts    []AttemptRecord
	Diagnostics *Diagnostics
}

// Succeeded builds a success result.
func Succeeded(method Method, url, identifier string) UploadResult {
	return UploadResult{Success: true, URL: url, Identifier: identifier, Method: method}
}

// Failed builds a failure result; an error matching common.ErrAborted marks
// the result as aborted.
func Failed(method Method, err error) UploadResult {
	if err == nil {
		err = errors.New("unknown upload failure")
	}
	return UploadResult{Method: method, Err: err, Aborted: errors.Is(err, common.ErrAborted)}
}

// Summary renders the aggregate failure listing every attempted method.
func (r UploadResult) Summary() string {
	if r.Success {
		return fmt.Sprintf("uploaded via %s: %s", r.Method, r.URL)
	}
	if r.Aborted {
		return "upload aborted"
	}
	if len(r.Attempts) == 0 {
		if r.Err != nil {
			return fmt.Sprintf("upload failed: %v", r.Err)
		}
		return "upload failed"
	}
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%d attempts): %s", a.Method, a.Attempts, a.Error))
	}
	return "upload failed; " + strings.Join(parts, "; ")
}
