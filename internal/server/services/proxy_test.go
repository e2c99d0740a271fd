package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/cryptox"
	"github.com/dmitrijs2005/mediaupload/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	folder, name, mime string
	data               []byte
	err                error
}

func (f *fakeStore) PresignPut(_ context.Context, fileName, mimeType, folder string) (Presign, error) {
	if f.err != nil {
		return Presign{}, f.err
	}
	key := folder + "/k" + fileName
	return Presign{Key: key, UploadURL: "https://s3/" + key + "?sig", PublicURL: "https://media/" + key}, nil
}

func (f *fakeStore) Put(_ context.Context, folder, fileName, mimeType string, data []byte) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.folder, f.name, f.mime, f.data = folder, fileName, mimeType, data
	key := folder + "/k.jpg"
	return key, "https://media/" + key, nil
}

func TestProxyUpload_StoresPayload(t *testing.T) {
	store := &fakeStore{}
	svc := NewProxyService(store, 1024)
	payload := []byte("jpeg-bytes")

	resp, err := svc.Upload(context.Background(), ProxyRequest{
		Source:   netx.EncodeDataURL("image/jpeg", payload),
		FileName: "a.jpg",
		OrderID:  "o-7",
	}, cryptox.Digest(payload))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "orders/o-7/k.jpg", resp.PublicID)
	assert.Equal(t, "https://media/orders/o-7/k.jpg", resp.MainImageURL)
	assert.Equal(t, int64(len(payload)), resp.OriginalSize)
	assert.Equal(t, "image/jpeg", store.mime)
	assert.Equal(t, payload, store.data)
}

func TestProxyUpload_Rejections(t *testing.T) {
	svc := NewProxyService(&fakeStore{}, 4)
	ctx := context.Background()

	_, err := svc.Upload(ctx, ProxyRequest{Source: "not a data url"}, "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Upload(ctx, ProxyRequest{Source: netx.EncodeDataURL("image/jpeg", []byte("toolarge"))}, "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Upload(ctx, ProxyRequest{Source: netx.EncodeDataURL("image/jpeg", []byte("ok"))}, cryptox.Digest([]byte("other")))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestProxyUpload_StorageFailure(t *testing.T) {
	svc := NewProxyService(&fakeStore{err: errors.New("bucket gone")}, 0)

	_, err := svc.Upload(context.Background(), ProxyRequest{Source: netx.EncodeDataURL("image/png", []byte("x")), Folder: "uploads"}, "")
	assert.ErrorIs(t, err, common.ErrBackend)
}
