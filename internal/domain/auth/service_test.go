package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain/shop"
)

type memUsers struct {
	mu        sync.Mutex
	byID      map[id.ID]*User
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[id.ID]*User)}
}

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

type fixture struct {
	svc      *Service
	users    *memUsers
	profiles *shop.MemoryRepository
}

func newFixture() *fixture {
	users := newMemUsers()
	profiles := shop.NewMemoryRepository()
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	svc := NewService(users, profiles, tx.Passthrough{}, NewJWTService(DefaultJWTConfig("test-secret")),
		shop.BuiltinDefaults(), cfg)
	return &fixture{svc: svc, users: users, profiles: profiles}
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:     "  Owner@Example.com ",
		Password:  "s3cret-pass",
		ShopName:  "Sai Medicals",
		OwnerName: "Ravi",
	}
}

func TestRegister_CreatesUserAndProfile(t *testing.T) {
	f := newFixture()

	session, err := f.svc.Register(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", session.User.Email)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)

	profile, err := f.profiles.Get(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sai Medicals", profile.ShopName)
	assert.Equal(t, shop.DefaultLowStockThreshold, profile.LowStockThreshold)
	assert.Equal(t, shop.DefaultExpiryThresholdDays, profile.ExpiryThresholdDays)

	uc, err := f.svc.JWT().ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID.String(), uc.UserID)
	assert.Equal(t, uc.UserID, uc.ShopID)
	assert.NotEmpty(t, uc.SessionID)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{"no email", func(r *RegisterRequest) { r.Email = " " }, "email"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password"},
		{"no shop name", func(r *RegisterRequest) { r.ShopName = "" }, "shopName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validRegistration()
			tt.mutate(&req)

			_, err := f.svc.Register(context.Background(), req)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), validRegistration())

	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestRegister_StoreFailure(t *testing.T) {
	f := newFixture()
	f.users.createErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), validRegistration())

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
}

func TestLogin(t *testing.T) {
	f := newFixture()
	reg, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	session, err := f.svc.Login(context.Background(), Credentials{Email: "OWNER@example.com", Password: "s3cret-pass"})

	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, session.User.ID)
	require.NotNil(t, session.Profile)
	assert.Equal(t, "Sai Medicals", session.Profile.ShopName)
	assert.NotNil(t, session.User.LastLoginAt)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Login(context.Background(), Credentials{Email: "nobody@example.com", Password: "whatever1"})

	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	f := newFixture()
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	f.svc.clock = types.FixedClock(now)
	reg, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, err := f.svc.Login(context.Background(), Credentials{Email: reg.User.Email, Password: "wrong-pass"})
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	_, err = f.svc.Login(context.Background(), Credentials{Email: reg.User.Email, Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	f.svc.clock = types.FixedClock(now.Add(16 * time.Minute))
	_, err = f.svc.Login(context.Background(), Credentials{Email: reg.User.Email, Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestValidateToken_Rejects(t *testing.T) {
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	token, _, err := jwtSvc.GenerateAccessToken(id.New().String(), id.New().String(), "a@b.c")
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	expired := NewJWTService(DefaultJWTConfig("test-secret"))
	expired.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = expired.ValidateToken(token)
	assert.Error(t, err)
}
