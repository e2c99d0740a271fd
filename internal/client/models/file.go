// Package models defines the client-side data model of the upload pipeline:
// files and their destinations, upload intents, signatures, the tagged
// upload result and the durable queue metadata.
package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// File is a user-selected binary held in memory for the duration of an upload.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// NewFile builds a File from raw bytes, filling Size from the payload.
func NewFile(name, mimeType string, data []byte) File {
	return File{Name: name, MimeType: mimeType, Size: int64(len(data)), Data: data}
}

// Ext returns the lower-cased extension of the file name without the dot.
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
}

// conversionFormats need server-side conversion before they are displayable
// in a browser.
var conversionFormats = map[string]struct{}{
	"heic": {},
	"heif": {},
	"tif":  {},
	"tiff": {},
	"mov":  {},
}

var conversionMimeTypes = map[string]struct{}{
	"image/heic":      {},
	"image/heif":      {},
	"image/tiff":      {},
	"video/quicktime": {},
}

// NeedsConversion reports whether the file is in a format that the storage
// provider must convert (and eagerly derive) at upload time.
func (f File) NeedsConversion() bool {
	if _, ok := conversionMimeTypes[strings.ToLower(f.MimeType)]; ok {
		return true
	}
	_, ok := conversionFormats[f.Ext()]
	return ok
}

// Destination names where an upload belongs. At most one of OrderID,
// SessionID and ProductID is expected; Folder is used when none is set.
type Destination struct {
	Folder    string `json:"folder,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// DefaultFolder is used when a destination names nothing at all.
const DefaultFolder = "uploads"

// ResolveFolder derives the storage folder for the destination.
func (d Destination) ResolveFolder() string {
	switch {
	case d.OrderID != "":
		return fmt.Sprintf("orders/%s", d.OrderID)
	case d.SessionID != "":
		return fmt.Sprintf("sessions/%s", d.SessionID)
	case d.ProductID != "":
		return fmt.Sprintf("products/%s", d.ProductID)
	case strings.Trim(d.Folder, "/") != "":
		return strings.Trim(d.Folder, "/")
	default:
		return DefaultFolder
	}
}

// UploadIntent is one user action asking for a file to be stored. It is
// consumed once by the orchestrator.
type UploadIntent struct {
	ID          string
	File        File
	Destination Destination
	CreatedAt   time.Time
}

// Metadata returns the durable shadow of the intent (no bytes).
func (i UploadIntent) Metadata() QueueMetadata {
	return QueueMetadata{
		ID:          i.ID,
		FileName:    i.File.Name,
		FileSize:    i.File.Size,
		Timestamp:   i.CreatedAt,
		Destination: i.Destination,
	}
}

// QueueMetadata is what survives a restart for a still-pending intent.
// It never carries the binary.
type QueueMetadata struct {
	ID          string      `json:"id"`
	FileName    string      `json:"file_name"`
	FileSize    int64       `json:"file_size"`
	Timestamp   time.Time   `json:"timestamp"`
	Destination Destination `json:"destination"`
}
