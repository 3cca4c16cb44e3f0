package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/coffeemorning/cmc-backend/pkg/auth"
	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/security"
)

type sessionManager interface {
	Touch(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) error
}

// LoginInput carries admin credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the minted token and the account it belongs to.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ServiceParams wires the admin auth service.
type ServiceParams struct {
	Repo     Repository
	Sessions sessionManager
	JWT      config.JWTConfig
	Logger   *logger.Logger
}

// Service authenticates admin accounts and manages their sessions.
type Service struct {
	repo     Repository
	sessions sessionManager
	jwt      config.JWTConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewService validates dependencies and builds the auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth repo required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:     params.Repo,
		sessions: params.Sessions,
		jwt:      params.JWT,
		logger:   params.Logger,
		now:      time.Now,
	}, nil
}

// Login verifies credentials and opens a session. Bad email and bad password
// return the same error so the endpoint does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.sessions.Touch(ctx, user.ID.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	if err := s.repo.Update(ctx, user.ID, map[string]any{"last_login_at": now.UTC()}); err != nil {
		s.logger.Error(ctx, "record last login", err)
	}

	ctx = s.logger.WithUserID(ctx, user.ID.String())
	s.logger.Info(ctx, "admin logged in")

	return &LoginResult{Token: token, User: user}, nil
}

// Logout ends the session immediately.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
