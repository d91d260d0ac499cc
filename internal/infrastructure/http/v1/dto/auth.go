package dto

import (
	"time"

	"stocky/internal/domain/auth"
)

// RegisterRequest for owner signup.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	ShopName  string `json:"shopName"`
	OwnerName string `json:"ownerName"`
	Phone     string `json:"phone"`
}

// ToAuthRequest converts to the domain request.
func (r RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Email:     r.Email,
		Password:  r.Password,
		ShopName:  r.ShopName,
		OwnerName: r.OwnerName,
		Phone:     r.Phone,
	}
}

// LoginRequest for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to the domain credentials.
func (r LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// UserResponse is the public view of an owner account.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser creates a UserResponse.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	User        UserResponse     `json:"user"`
	Profile     *ProfileResponse `json:"profile,omitempty"`
}

// FromSession creates a SessionResponse.
func FromSession(s *auth.Session) SessionResponse {
	resp := SessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		ExpiresAt:   s.ExpiresAt,
		User:        FromUser(s.User),
	}
	if s.Profile != nil {
		p := FromProfile(s.Profile)
		resp.Profile = &p
	}
	return resp
}
