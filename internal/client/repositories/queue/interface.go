// Package queue persists the metadata of pending offline uploads. Binaries
// are never stored.
package queue

import (
	"context"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

type Repository interface {
	// Add appends m at the tail. Adding an existing id is a no-op.
	Add(ctx context.Context, m models.QueueMetadata) error
	// List returns all entries in insertion (FIFO) order.
	List(ctx context.Context) ([]models.QueueMetadata, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
