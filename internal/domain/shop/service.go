package shop

import (
	"context"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/domain"
	"stocky/pkg/logger"
)

// Service reads and edits the caller's shop profile.
type Service struct {
	repo     Repository
	defaults Defaults
}

// NewService creates a new shop service.
func NewService(repo Repository, defaults Defaults) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// Defaults returns the thresholds applied to new profiles.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// Get returns the caller's profile, creating it with default thresholds
// when the signup flow did not.
func (s *Service) Get(ctx context.Context) (*Profile, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, shopID)
}

// GetOrCreate returns the profile of shopID, creating an empty one if missing.
func (s *Service) GetOrCreate(ctx context.Context, shopID id.ID) (*Profile, error) {
	p, err := s.repo.Get(ctx, shopID)
	if err == nil {
		return p, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, apperror.Persistence("get shop profile", err)
	}

	p = NewProfile(shopID, "", "", s.defaults)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Persistence("create shop profile", err)
	}
	logger.Info(ctx, "shop profile created with defaults", "shop_id", shopID)
	return p, nil
}

// Thresholds resolves the alert thresholds for shopID. A missing profile
// yields the defaults without creating one.
func (s *Service) Thresholds(ctx context.Context, shopID id.ID) (Defaults, error) {
	p, err := s.repo.Get(ctx, shopID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return s.defaults, nil
		}
		return Defaults{}, apperror.Persistence("get shop profile", err)
	}
	return p.Thresholds(), nil
}

// Update saves the caller's profile. Thresholds must be given explicitly.
func (s *Service) Update(ctx context.Context, p *Profile) error {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}

	existing, err := s.GetOrCreate(ctx, shopID)
	if err != nil {
		return err
	}

	p.ID = shopID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return apperror.Persistence("update shop profile", err)
	}
	return nil
}
