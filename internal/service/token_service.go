package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prodlast/cospace-backend/internal/domain"
	"github.com/prodlast/cospace-backend/internal/repo/postgres"
	"github.com/prodlast/cospace-backend/pkg/auth"
	"github.com/prodlast/cospace-backend/pkg/config"
)

// TokenService issues session tokens and owns the per-user rotation
// marker. Issuing rotates the marker, so only the most recently issued
// token validates (single-session model).
type TokenService interface {
	Issue(ctx context.Context, user *domain.User) (string, error)
	Rotate(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type tokenService struct {
	userRepo postgres.UserRepo
	cfg      config.AuthConfig
}

func NewTokenService(userRepo postgres.UserRepo, cfg config.AuthConfig) TokenService {
	return &tokenService{userRepo: userRepo, cfg: cfg}
}

func (s *tokenService) Rotate(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	marker := uuid.New()
	if err := s.userRepo.UpdateTokenUUID(ctx, userID, marker); err != nil {
		return uuid.Nil, fmt.Errorf("failed to rotate token marker: %w", err)
	}
	return marker, nil
}

func (s *tokenService) Issue(ctx context.Context, user *domain.User) (string, error) {
	marker, err := s.Rotate(ctx, user.ID)
	if err != nil {
		return "", err
	}

	token, err := auth.NewAccessToken(user.ID, user.Role, marker, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
