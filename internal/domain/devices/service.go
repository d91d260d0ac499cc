package devices

import (
	"context"
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/domain"
	"stocky/pkg/logger"
)

// Service registers devices for the caller and serves token lookups to the digest.
type Service struct {
	repo Repository
}

// NewService creates a new devices service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register stores the caller's device token.
func (s *Service) Register(ctx context.Context, token, platform string) (*Token, error) {
	ownerID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	token, err = NormalizeToken(token)
	if err != nil {
		return nil, err
	}

	t := &Token{
		Token:     token,
		OwnerID:   ownerID,
		Platform:  strings.TrimSpace(platform),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, t); err != nil {
		return nil, apperror.Persistence("register device", err)
	}
	return t, nil
}

// Unregister removes one of the caller's tokens.
func (s *Service) Unregister(ctx context.Context, token string) error {
	ownerID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}
	token, err = NormalizeToken(token)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, token); err != nil {
		return apperror.Persistence("unregister device", err)
	}
	return nil
}

// ListByOwner returns the tokens of one owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.ID) ([]*Token, error) {
	tokens, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Persistence("list device tokens", err)
	}
	return tokens, nil
}

// Prune drops a token the push provider no longer recognises.
func (s *Service) Prune(ctx context.Context, token string) error {
	if err := s.repo.Prune(ctx, token); err != nil {
		return apperror.Persistence("prune device token", err)
	}
	logger.Info(ctx, "device token pruned", "token_suffix", suffix(token))
	return nil
}

// suffix keeps logs free of full tokens.
func suffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[len(token)-8:]
}
