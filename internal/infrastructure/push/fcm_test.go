package push

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	"stocky/internal/domain/digest"
)

const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func keyPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
}

func accountJSON(t *testing.T, key *rsa.PrivateKey, tokenURI string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "demo-project",
		"private_key_id": "kid-1",
		"private_key":    keyPEM(key),
		"client_email":   "digest@demo-project.iam.gserviceaccount.com",
		"token_uri":      tokenURI,
	})
	require.NoError(t, err)
	return b
}

// provider fakes the token endpoint and the FCM send endpoint.
type provider struct {
	t          *testing.T
	tokenCode  int
	tokenBody  string
	sendStatus map[string]int
	sendBody   map[string]string
	sent       []map[string]any
	assertions []string
}

func newProvider(t *testing.T) (*provider, *httptest.Server) {
	p := &provider{
		t:          t,
		tokenCode:  http.StatusOK,
		tokenBody:  `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`,
		sendStatus: map[string]int{},
		sendBody:   map[string]string{},
	}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return p, srv
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/token":
		assert.NoError(p.t, r.ParseForm())
		assert.Equal(p.t, jwtBearerGrant, r.PostForm.Get("grant_type"))
		p.assertions = append(p.assertions, r.PostForm.Get("assertion"))
		w.WriteHeader(p.tokenCode)
		_, _ = w.Write([]byte(p.tokenBody))

	case r.URL.Path == "/v1/projects/demo-project/messages:send":
		assert.Equal(p.t, "Bearer tok-1", r.Header.Get("Authorization"))
		var body struct {
			Message map[string]any `json:"message"`
		}
		assert.NoError(p.t, json.NewDecoder(r.Body).Decode(&body))
		p.sent = append(p.sent, body.Message)

		token, _ := body.Message["token"].(string)
		if code, ok := p.sendStatus[token]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(p.sendBody[token]))
			return
		}
		_, _ = w.Write([]byte(`{"name":"projects/demo-project/messages/1"}`))

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, key *rsa.PrivateKey) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ServiceAccountJSON: accountJSON(t, key, srv.URL+"/token"),
		Endpoint:           srv.URL,
		Timeout:            5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestParseServiceAccount_EscapedNewlines(t *testing.T) {
	key := testKey(t)
	escaped := strings.ReplaceAll(keyPEM(key), "\n", `\n`)
	raw, err := json.Marshal(map[string]string{
		"project_id":   "demo-project",
		"private_key":  escaped,
		"client_email": "digest@demo-project.iam.gserviceaccount.com",
	})
	require.NoError(t, err)

	sa, err := ParseServiceAccount(raw)

	require.NoError(t, err)
	assert.Equal(t, DefaultTokenURI, sa.TokenURI)
	assert.True(t, key.Equal(sa.key))
}

func TestParseServiceAccount_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"no email", `{"project_id":"p","private_key":"x"}`},
		{"no project", `{"client_email":"a@b","private_key":"x"}`},
		{"bad key", `{"project_id":"p","client_email":"a@b","private_key":"not a pem"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServiceAccount([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestClient_AssertionClaims(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	c := newTestClient(t, srv, key)

	_, err := c.Authorize(context.Background())
	require.NoError(t, err)
	require.Len(t, p.assertions, 1)

	parsed, err := jwt.ParseWithClaims(p.assertions[0], jwt.MapClaims{}, func(tok *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)

	assert.Equal(t, "kid-1", parsed.Header["kid"])
	assert.Equal(t, "digest@demo-project.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, claims["iss"], claims["sub"])
	assert.Equal(t, srv.URL+"/token", claims["aud"])
	assert.Equal(t, MessagingScope, claims["scope"])

	iat, ok := claims["iat"].(float64)
	require.True(t, ok)
	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.InDelta(t, AssertionTTL.Seconds(), exp-iat, 15)
}

func TestClient_AuthorizeAndSend(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	c := newTestClient(t, srv, key)

	sender, err := c.Authorize(context.Background())
	require.NoError(t, err)
	require.Len(t, p.assertions, 1)

	err = sender.Send(context.Background(), "device-1", digest.Message{
		Title: digest.Title,
		Body:  "2 expired. 1 expiring soon.",
		Data:  map[string]string{"url": digest.TargetURL},
	})
	require.NoError(t, err)

	require.Len(t, p.sent, 1)
	msg := p.sent[0]
	assert.Equal(t, "device-1", msg["token"])
	assert.Equal(t, map[string]any{"title": digest.Title, "body": "2 expired. 1 expiring soon."}, msg["notification"])
	assert.Equal(t, map[string]any{"url": "/returns"}, msg["data"])
}

func TestClient_TokenRejectedSurfacesDescription(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	p.tokenCode = http.StatusBadRequest
	p.tokenBody = `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`
	c := newTestClient(t, srv, key)

	_, err := c.Authorize(context.Background())

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAuthAssertion, appErr.Code)
	assert.Contains(t, appErr.Message, "Invalid JWT Signature.")
	assert.Equal(t, "Invalid JWT Signature.", appErr.Details["error_description"])
	assert.Equal(t, http.StatusBadRequest, appErr.Details["provider_status"])
}

func TestClient_TokenRejectedWithoutDescription(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	p.tokenCode = http.StatusUnauthorized
	p.tokenBody = `{"error":"unauthorized_client"}`
	c := newTestClient(t, srv, key)

	_, err := c.Authorize(context.Background())

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAuthAssertion, appErr.Code)
	assert.Equal(t, "unauthorized_client", appErr.Details["error_description"])
}

func TestClient_TokenEndpointWithoutAccessToken(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	p.tokenBody = `{"token_type":"Bearer"}`
	c := newTestClient(t, srv, key)

	_, err := c.Authorize(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodeAuthAssertion))
}

func TestSender_UnregisteredToken(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	p.sendStatus["stale"] = http.StatusNotFound
	p.sendBody["stale"] = `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND",` +
		`"details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`
	c := newTestClient(t, srv, key)

	sender, err := c.Authorize(context.Background())
	require.NoError(t, err)

	err = sender.Send(context.Background(), "stale", digest.Message{Title: "t", Body: "b"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, digest.ErrUnregistered))
	var se *SendError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode())
}

func TestSender_ProviderFailureKeepsStatus(t *testing.T) {
	key := testKey(t)
	p, srv := newProvider(t)
	p.sendStatus["busy"] = http.StatusServiceUnavailable
	p.sendBody["busy"] = `{"error":{"code":503,"message":"The service is currently unavailable.","status":"UNAVAILABLE"}}`
	c := newTestClient(t, srv, key)

	sender, err := c.Authorize(context.Background())
	require.NoError(t, err)

	err = sender.Send(context.Background(), "busy", digest.Message{Title: "t", Body: "b"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, digest.ErrUnregistered))
	var sc interface{ StatusCode() int }
	require.True(t, errors.As(err, &sc))
	assert.Equal(t, http.StatusServiceUnavailable, sc.StatusCode())
}
