package users

import (
	"context"

	"github.com/dmitrijs2005/mediaupload/internal/server/models"
)

// Repository stores operators allowed to request upload signatures.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateCredentials replaces the salt and verifier of an operator.
	UpdateCredentials(ctx context.Context, id string, salt, verifier []byte) error
}
