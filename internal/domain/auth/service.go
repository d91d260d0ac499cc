package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service registers and authenticates shop owners.
type Service struct {
	userRepo    UserRepository
	profileRepo shop.Repository
	txManager   tx.Manager
	jwtService  *JWTService
	defaults    shop.Defaults
	config      ServiceConfig
	clock       types.Clock
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	profileRepo shop.Repository,
	txManager tx.Manager,
	jwtService *JWTService,
	defaults shop.Defaults,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		txManager:   txManager,
		jwtService:  jwtService,
		defaults:    defaults,
		config:      config,
		clock:       types.SystemClock{},
	}
}

// Register creates the owner account and its shop profile in one
// transaction, then signs the owner in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	if strings.TrimSpace(req.ShopName) == "" {
		return nil, apperror.NewValidation("shop name is required").WithDetail("field", "shopName")
	}

	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		return nil, apperror.Persistence("check email exists", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(email, string(passwordHash))
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	profile := shop.NewProfile(user.ID, req.ShopName, req.OwnerName, s.defaults)
	profile.Phone = strings.TrimSpace(req.Phone)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return apperror.Persistence("create user", err)
		}
		if err := s.profileRepo.Create(ctx, profile); err != nil {
			return apperror.Persistence("create shop profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "owner registered",
		"user_id", user.ID,
		"email", user.Email)

	return s.session(user, profile)
}

// Login authenticates an owner and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	now := s.clock.Now()

	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, apperror.Persistence("get user", err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			logger.Warn(ctx, "failed to record login attempt", "user_id", user.ID, "error", err)
		}
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	var profile *shop.Profile
	if p, err := s.profileRepo.Get(ctx, user.ID); err == nil {
		profile = p
	}

	logger.Info(ctx, "owner logged in", "user_id", user.ID)
	return s.session(user, profile)
}

// GetUserByID returns an owner account.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, apperror.Persistence("get user", err)
	}
	return user, nil
}

// JWT exposes the token service for the auth middleware.
func (s *Service) JWT() *JWTService {
	return s.jwtService
}

func (s *Service) session(user *User, profile *shop.Profile) (*Session, error) {
	// every owner runs exactly one shop keyed by the owner id
	token, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.ID.String(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
		User:        user,
		Profile:     profile,
	}, nil
}
