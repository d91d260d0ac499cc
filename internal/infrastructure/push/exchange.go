package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"

	"stocky/internal/core/apperror"
)

// exchange runs the JWT-bearer flow over hc. A rejection is
// AUTH_ASSERTION_ERROR carrying the endpoint's error_description.
func exchange(ctx context.Context, hc *http.Client, conf *jwt.Config) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)

	tok, err := conf.TokenSource(ctx).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return nil, rejected(rerr)
		}
		return nil, apperror.NewAuthAssertion("", fmt.Errorf("token request: %w", err))
	}
	if tok.AccessToken == "" {
		return nil, apperror.NewAuthAssertion("token endpoint returned no access_token", nil)
	}
	return tok, nil
}

type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// rejected maps a token endpoint rejection. The jwt flow leaves the
// RFC 6749 fields empty, so they are read from the body.
func rejected(rerr *oauth2.RetrieveError) error {
	te := tokenError{Error: rerr.ErrorCode, ErrorDescription: rerr.ErrorDescription}
	if te.ErrorDescription == "" {
		var body tokenError
		if json.Unmarshal(rerr.Body, &body) == nil {
			te.ErrorDescription = body.ErrorDescription
			if te.Error == "" {
				te.Error = body.Error
			}
		}
	}

	status := 0
	desc := te.ErrorDescription
	if desc == "" {
		desc = te.Error
	}
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
		if desc == "" {
			desc = rerr.Response.Status
		}
	}
	return apperror.NewAuthAssertion(desc, fmt.Errorf("token endpoint returned %d", status)).
		WithDetail("provider_status", status)
}
