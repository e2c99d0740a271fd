package products

import (
	"context"

	"github.com/dmitrijs2005/mediaupload/internal/server/models"
)

// Repository is the record store the reconciler repairs.
type Repository interface {
	// ListWithAsset returns up to limit records that name an asset.
	ListWithAsset(ctx context.Context, limit int) ([]models.Product, error)
	// ListMissingAsset returns up to limit records without an asset.
	ListMissingAsset(ctx context.Context, limit int) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	// Images returns the source images of a product, primary first.
	Images(ctx context.Context, productID string) ([]models.ProductImage, error)
	// UpdateAsset writes the identifier and preview in one statement.
	UpdateAsset(ctx context.Context, id, assetID, previewURL string) error
	UpdatePreview(ctx context.Context, id, previewURL string) error
}
