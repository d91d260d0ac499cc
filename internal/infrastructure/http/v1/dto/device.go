package dto

import (
	"time"

	"stocky/internal/domain/devices"
)

// DeviceRequest registers or removes a push token.
type DeviceRequest struct {
	Token    string `json:"token" form:"token" binding:"required"`
	Platform string `json:"platform"`
}

// DeviceResponse is a registered token.
type DeviceResponse struct {
	Token     string    `json:"token"`
	Platform  string    `json:"platform,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDevice creates a DeviceResponse.
func FromDevice(t *devices.Token) DeviceResponse {
	return DeviceResponse{Token: t.Token, Platform: t.Platform, UpdatedAt: t.UpdatedAt}
}
