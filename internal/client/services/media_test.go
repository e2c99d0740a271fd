package services

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/client"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/client/queue"
	"github.com/dmitrijs2005/mediaupload/internal/client/repositories/diagnostics"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeUploader struct {
	last    models.UploadOptions
	aborted bool
}

func (f *fakeUploader) Upload(_ context.Context, file models.File, opts models.UploadOptions) models.UploadResult {
	f.last = opts
	if opts.OnProgress != nil {
		opts.OnProgress(100, models.MethodDirectSigned)
	}
	return models.Succeeded(models.MethodDirectSigned, "https://cdn/"+file.Name, "uploads/"+file.Name)
}

func (f *fakeUploader) Abort() { f.aborted = true }

type fakeQueue struct {
	enqueued  []string
	processed bool
	flushErr  error
}

func (f *fakeQueue) Enqueue(_ context.Context, file models.File, _ models.Destination, _ queue.Callback) (string, error) {
	f.enqueued = append(f.enqueued, file.Name)
	return "id-1", nil
}

func (f *fakeQueue) Pending() []models.QueueMetadata {
	out := make([]models.QueueMetadata, 0, len(f.enqueued))
	for _, n := range f.enqueued {
		out = append(out, models.QueueMetadata{FileName: n})
	}
	return out
}

func (f *fakeQueue) Process()                    { f.processed = true }
func (f *fakeQueue) Flush(context.Context) error { return f.flushErr }

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), "file:mediasvc_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	s := NewMediaService(&fakeUploader{}, &fakeQueue{}, nil)

	t.Run("detects type and adds extension", func(t *testing.T) {
		p := filepath.Join(dir, "photo")
		require.NoError(t, os.WriteFile(p, pngHeader, 0o600))

		f, err := s.LoadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "photo.png", f.Name)
		assert.Equal(t, "image/png", f.MimeType)
		assert.Equal(t, int64(len(pngHeader)), f.Size)
	})

	t.Run("keeps name with extension", func(t *testing.T) {
		p := filepath.Join(dir, "note.txt")
		require.NoError(t, os.WriteFile(p, []byte("hello"), 0o600))

		f, err := s.LoadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "note.txt", f.Name)
		assert.Equal(t, "text/plain", f.MimeType)
	})

	t.Run("empty file", func(t *testing.T) {
		p := filepath.Join(dir, "empty.jpg")
		require.NoError(t, os.WriteFile(p, nil, 0o600))

		_, err := s.LoadFile(p)
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.LoadFile(filepath.Join(dir, "nope.jpg"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("too large", func(t *testing.T) {
		ms := &mediaService{readFile: func(string) ([]byte, error) { return make([]byte, MaxFileSize+1), nil }}
		_, err := ms.LoadFile("big.jpg")
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestMediaService_UploadAndQueue(t *testing.T) {
	up := &fakeUploader{}
	q := &fakeQueue{flushErr: errors.New("disk")}
	s := NewMediaService(up, q, nil)
	ctx := context.Background()
	f := models.NewFile("a.png", "image/png", pngHeader)

	var seen []int
	res := s.Upload(ctx, f, models.Destination{OrderID: "o1"}, func(p int, _ models.Method) { seen = append(seen, p) })
	require.True(t, res.Success)
	assert.Equal(t, "o1", up.last.Destination.OrderID)
	assert.Equal(t, []int{100}, seen)

	s.Abort()
	assert.True(t, up.aborted)

	id, err := s.Enqueue(ctx, f, models.Destination{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Len(t, s.Pending(), 1)

	s.Process()
	assert.True(t, q.processed)
	assert.EqualError(t, s.Flush(ctx), "disk")
}

func TestMediaService_Diagnostics(t *testing.T) {
	db := setupDB(t)
	repo := diagnostics.NewSQLiteRepository(db)
	s := NewMediaService(&fakeUploader{}, &fakeQueue{}, repo)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.Diagnostics{
		Online:      false,
		NetworkType: "offline",
		FileName:    "a.png",
		FileSize:    10,
		Attempts:    []models.AttemptRecord{{Method: models.MethodProxy, Error: "timeout", Attempts: 3}},
		CreatedAt:   time.Unix(1_700_000_000, 0).UTC(),
	}))

	got, err := s.Diagnostics(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.png", got[0].FileName)
	assert.Equal(t, models.MethodProxy, got[0].Attempts[0].Method)

	require.NoError(t, s.ClearDiagnostics(ctx))
	got, err = s.Diagnostics(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
