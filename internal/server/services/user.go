// Package services contains the business logic of mediasrv: operator
// login, upload signing and origin storage.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/cryptox"
	"github.com/dmitrijs2005/mediaupload/internal/dbx"
	"github.com/dmitrijs2005/mediaupload/internal/server/auth"
	"github.com/dmitrijs2005/mediaupload/internal/server/config"
	"github.com/dmitrijs2005/mediaupload/internal/server/models"
	"github.com/dmitrijs2005/mediaupload/internal/server/repositories/repomanager"
)

// UserService authenticates operators and issues access tokens.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration

	withTx func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	s := &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
	s.withTx = func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
		return dbx.WithTx(ctx, s.db, nil, fn)
	}
	return s
}

// EnsureUser provisions the operator configured at startup. An existing
// operator whose password no longer matches gets fresh credentials, so
// changing the configured password takes effect on restart.
func (s *UserService) EnsureUser(ctx context.Context, username string, password []byte) (*models.User, error) {
	var user *models.User

	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByUsername(ctx, username)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if existing != nil && cryptox.CheckPassword(password, existing.Salt, existing.Verifier) {
			user = existing
			return nil
		}

		salt, err := cryptox.NewSalt()
		if err != nil {
			return fmt.Errorf("error generating salt: %w", err)
		}
		verifier := cryptox.MakeVerifier(cryptox.DeriveMasterKey(password, salt))

		if existing != nil {
			if err := repo.UpdateCredentials(ctx, existing.ID, salt, verifier); err != nil {
				return fmt.Errorf("error rotating credentials: %w", err)
			}
			existing.Salt, existing.Verifier = salt, verifier
			user = existing
			return nil
		}

		user, err = repo.Create(ctx, &models.User{UserName: username, Salt: salt, Verifier: verifier})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password against the stored verifier and returns an
// access token. Unknown users and wrong passwords both yield
// common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username string, password []byte) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// spend the same argon2 time as a real check
			cryptox.CheckPassword(password, make([]byte, cryptox.SaltSize), nil)
			return "", common.ErrUnauthorized
		}
		return "", err
	}

	if !cryptox.CheckPassword(password, user.Salt, user.Verifier) {
		return "", common.ErrUnauthorized
	}

	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}

// Authenticate returns the operator id carried by token.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}
