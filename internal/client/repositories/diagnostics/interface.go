// Package diagnostics keeps the failure bundles produced by the uploader
// for later support inspection.
package diagnostics

import (
	"context"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

type Repository interface {
	Save(ctx context.Context, d models.Diagnostics) error
	// Recent returns at most limit bundles, newest first.
	Recent(ctx context.Context, limit int) ([]models.Diagnostics, error)
	Clear(ctx context.Context) error
}
