package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/client/queue"
	"github.com/dmitrijs2005/mediaupload/internal/client/repositories/diagnostics"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize bounds files read from disk; larger files are rejected before
// any transport is attempted.
const MaxFileSize = 25 << 20

// Uploader is the fallback orchestrator.
type Uploader interface {
	Upload(ctx context.Context, f models.File, opts models.UploadOptions) models.UploadResult
	Abort()
}

// Queue is the offline queue.
type Queue interface {
	Enqueue(ctx context.Context, f models.File, dest models.Destination, cb queue.Callback) (string, error)
	Pending() []models.QueueMetadata
	Process()
	Flush(ctx context.Context) error
}

// MediaService is the media workflow used by the CLI.
type MediaService interface {
	LoadFile(path string) (models.File, error)
	Upload(ctx context.Context, f models.File, dest models.Destination, onProgress models.ProgressFunc) models.UploadResult
	Abort()
	Enqueue(ctx context.Context, f models.File, dest models.Destination, cb queue.Callback) (string, error)
	Pending() []models.QueueMetadata
	Process()
	Flush(ctx context.Context) error
	Diagnostics(ctx context.Context, limit int) ([]models.Diagnostics, error)
	ClearDiagnostics(ctx context.Context) error
}

type mediaService struct {
	uploader    Uploader
	queue       Queue
	diagnostics diagnostics.Repository
	readFile    func(string) ([]byte, error)
}

func NewMediaService(u Uploader, q Queue, d diagnostics.Repository) MediaService {
	return &mediaService{uploader: u, queue: q, diagnostics: d, readFile: os.ReadFile}
}

// LoadFile reads path and sniffs its media type from the content. A name
// without an extension gets the detected one.
func (s *mediaService) LoadFile(path string) (models.File, error) {
	data, err := s.readFile(path)
	if err != nil {
		return models.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return models.File{}, fmt.Errorf("%w: %s is empty", common.ErrValidation, path)
	}
	if len(data) > MaxFileSize {
		return models.File{}, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrValidation, path, MaxFileSize)
	}

	mt := mimetype.Detect(data)
	name := filepath.Base(path)
	if filepath.Ext(name) == "" {
		name += mt.Extension()
	}
	mediaType, _, _ := strings.Cut(mt.String(), ";")

	return models.NewFile(name, strings.TrimSpace(mediaType), data), nil
}

func (s *mediaService) Upload(ctx context.Context, f models.File, dest models.Destination, onProgress models.ProgressFunc) models.UploadResult {
	return s.uploader.Upload(ctx, f, models.UploadOptions{Destination: dest, OnProgress: onProgress})
}

func (s *mediaService) Abort() {
	s.uploader.Abort()
}

func (s *mediaService) Enqueue(ctx context.Context, f models.File, dest models.Destination, cb queue.Callback) (string, error) {
	return s.queue.Enqueue(ctx, f, dest, cb)
}

func (s *mediaService) Pending() []models.QueueMetadata {
	return s.queue.Pending()
}

func (s *mediaService) Process() {
	s.queue.Process()
}

func (s *mediaService) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

func (s *mediaService) Diagnostics(ctx context.Context, limit int) ([]models.Diagnostics, error) {
	d, err := s.diagnostics.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return d, nil
}

func (s *mediaService) ClearDiagnostics(ctx context.Context) error {
	if err := s.diagnostics.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}
