package billing

import (
	"github.com/ttacon/libphonenumber"

	"stocky/internal/core/apperror"
)

// NormalizePhone parses a customer phone in the shop's default region and
// returns it in E.164. Empty input stays empty.
func NormalizePhone(raw, region string) (string, error) {
	if raw == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", apperror.NewValidation("invalid phone number").
			WithDetail("field", "customerPhone").
			WithCause(err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", apperror.NewValidation("invalid phone number").
			WithDetail("field", "customerPhone")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
