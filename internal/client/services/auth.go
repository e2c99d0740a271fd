// Package services contains the application services behind the upload CLI:
// operator authentication and the media workflow (direct uploads, the
// offline queue and failure diagnostics).
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/client/client"
	"github.com/dmitrijs2005/mediaupload/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange operator credentials for an access token.
//   - Logout: forget the access token.
//   - Ping: check backend liveness.
//   - Close: release underlying client resources.
//
// All methods that talk to the backend honor context cancellation.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Logout()
	Ping(ctx context.Context) error
	Close() error
}

type authService struct {
	client client.Client
}

// NewAuthService constructs an AuthService bound to the given API client.
func NewAuthService(c client.Client) AuthService {
	return &authService{client: c}
}

// Login authenticates against the backend. Wrong credentials surface as
// common.ErrUnauthorized, an unreachable backend as common.ErrNetwork.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	if username == "" || len(password) == 0 {
		return fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	err := a.client.Login(ctx, username, password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrUnauthorized):
		return common.ErrUnauthorized
	default:
		return fmt.Errorf("login: %w", err)
	}
}

func (a *authService) Logout() {
	a.client.Logout()
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close() error {
	return a.client.Close()
}
