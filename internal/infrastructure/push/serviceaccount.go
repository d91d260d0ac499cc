// Package push talks to Firebase Cloud Messaging on behalf of the digest
// dispatcher. It trades a service-account assertion for an access token
// and sends one message per device token.
package push

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenURI is Google's OAuth2 token endpoint.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// ServiceAccount is the subset of a Google service-account key file we use.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`

	key *rsa.PrivateKey
	pem []byte
}

// ParseServiceAccount decodes the key file and its RSA private key.
// Keys pasted into environment variables often carry literal "\n"
// sequences; those are turned back into newlines.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("decode service account: %w", err)
	}
	if sa.ClientEmail == "" {
		return nil, fmt.Errorf("service account: client_email is empty")
	}
	if sa.ProjectID == "" {
		return nil, fmt.Errorf("service account: project_id is empty")
	}
	if sa.PrivateKey == "" {
		return nil, fmt.Errorf("service account: private_key is empty")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = DefaultTokenURI
	}

	pem := strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("service account: parse private key: %w", err)
	}
	sa.key = key
	sa.pem = []byte(pem)
	return &sa, nil
}
