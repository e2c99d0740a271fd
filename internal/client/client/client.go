package client

import (
	"context"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

// Client is the contract of the trusted backend used by the upload
// pipeline: authentication, liveness, upload signatures, origin-storage
// presigning and the proxied upload.
type Client interface {
	Close() error
	Login(ctx context.Context, username string, password []byte) error
	// Logout drops the access token held by the client.
	Logout()
	Ping(ctx context.Context) error
	RequestSignature(ctx context.Context, dest models.Destination) (models.UploadSignature, error)
	PresignStorage(ctx context.Context, fileName, mimeType, folder string) (models.StoragePresign, error)
	ProxyUpload(ctx context.Context, req models.ProxyRequest) (models.ProxyResponse, error)
}
