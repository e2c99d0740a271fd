package models

import "time"

// UploadSignature is a short-lived credential for the signed provider
// upload. It is generated per request and used for a single attempt.
type UploadSignature struct {
	CloudName string `json:"cloudName"`
	APIKey    string `json:"apiKey"`
	Timestamp int64  `json:"timestamp"`
	Folder    string `json:"folder"`
	PublicID  string `json:"publicId"`
	Signature string `json:"signature"`
	UploadURL string `json:"uploadUrl"`
	// Transformation is an optional incoming transformation covered by the
	// signature.
	Transformation string `json:"transformation,omitempty"`
}

// Complete reports whether every field needed for a signed upload is set.
func (s UploadSignature) Complete() bool {
	return s.APIKey != "" && s.Timestamp > 0 && s.Signature != "" && s.UploadURL != ""
}

// Expired reports whether the signature timestamp falls outside window.
func (s UploadSignature) Expired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(time.Unix(s.Timestamp, 0)) > window
}

// StoragePresign is a presigned PUT into the application's own object
// storage together with the public URL the object will be served from.
type StoragePresign struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// ProxyRequest is the payload of the backend-proxied upload.
type ProxyRequest struct {
	Source   string `json:"source"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Folder   string `json:"folder"`
	OrderID  string `json:"orderId,omitempty"`
	Digest   string `json:"-"`
}

// ProxyResponse is the backend reply to a proxied upload.
type ProxyResponse struct {
	Success        bool   `json:"success"`
	MainImageURL   string `json:"mainImageUrl"`
	PublicID       string `json:"publicId"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize"`
	Error          string `json:"error,omitempty"`
}
