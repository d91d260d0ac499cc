package push

import (
	"time"

	"golang.org/x/oauth2/jwt"
)

const (
	// MessagingScope grants send access to FCM.
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	// AssertionTTL is the lifetime of a signed assertion.
	AssertionTTL = time.Hour
)

// JWTConfig describes the RS256 JWT-bearer flow for this account:
// iss and sub are the client email, aud is the token endpoint.
func (sa *ServiceAccount) JWTConfig() *jwt.Config {
	return &jwt.Config{
		Email:        sa.ClientEmail,
		Subject:      sa.ClientEmail,
		PrivateKey:   sa.pem,
		PrivateKeyID: sa.PrivateKeyID,
		Scopes:       []string{MessagingScope},
		TokenURL:     sa.TokenURI,
		Expires:      AssertionTTL,
	}
}
