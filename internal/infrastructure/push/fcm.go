package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"stocky/internal/core/apperror"
	"stocky/internal/domain/digest"
)

// DefaultTimeout bounds each provider request.
const DefaultTimeout = 15 * time.Second

// Config configures the FCM client.
type Config struct {
	ServiceAccountJSON []byte
	Timeout            time.Duration
	// Endpoint overrides the FCM base URL.
	Endpoint string
	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client implements digest.Authorizer for FCM HTTP v1.
type Client struct {
	sa        *ServiceAccount
	hc        *http.Client
	endpoint  string
	transport http.RoundTripper
}

// NewClient parses the service account. No network call is made until Authorize.
func NewClient(cfg Config) (*Client, error) {
	sa, err := ParseServiceAccount(cfg.ServiceAccountJSON)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Client{
		sa:        sa,
		hc:        &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout},
		endpoint:  endpoint,
		transport: cfg.Transport,
	}, nil
}

// ProjectID is the Firebase project messages are sent through.
func (c *Client) ProjectID() string {
	return c.sa.ProjectID
}

// Authorize exchanges a signed assertion for an access token and returns
// a Sender bound to that token.
func (c *Client) Authorize(ctx context.Context) (digest.Sender, error) {
	tok, err := exchange(ctx, c.hc, c.sa.JWTConfig())
	if err != nil {
		return nil, err
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: c.transport},
		Timeout:   c.hc.Timeout,
	}
	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, apperror.NewAuthAssertion("", fmt.Errorf("create fcm service: %w", err))
	}
	return &Sender{svc: svc, parent: "projects/" + c.sa.ProjectID}, nil
}

// Sender sends FCM messages with one access token.
type Sender struct {
	svc    *fcm.Service
	parent string
}

// Send delivers one notification. An unknown token wraps digest.ErrUnregistered.
func (s *Sender) Send(ctx context.Context, deviceToken string, msg digest.Message) error {
	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: deviceToken,
			Notification: &fcm.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		},
	}

	_, err := s.svc.Projects.Messages.Send(s.parent, req).Context(ctx).Do()
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if unregistered(gerr) {
			return &SendError{Status: gerr.Code, Err: fmt.Errorf("%w: %s", digest.ErrUnregistered, gerr.Message)}
		}
		return &SendError{Status: gerr.Code, Err: err}
	}
	return &SendError{Err: err}
}

// SendError carries the provider's HTTP status for a failed send.
type SendError struct {
	Status int
	Err    error
}

func (e *SendError) Error() string {
	if e.Status == 0 {
		return "fcm send: " + e.Err.Error()
	}
	return fmt.Sprintf("fcm send (%d): %v", e.Status, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// StatusCode returns the provider HTTP status, 0 when the request never completed.
func (e *SendError) StatusCode() int { return e.Status }

func unregistered(gerr *googleapi.Error) bool {
	if gerr.Code == http.StatusNotFound {
		return true
	}
	for _, d := range gerr.Details {
		if m, ok := d.(map[string]any); ok && m["errorCode"] == "UNREGISTERED" {
			return true
		}
	}
	return strings.Contains(gerr.Body, "UNREGISTERED")
}

var (
	_ digest.Authorizer = (*Client)(nil)
	_ digest.Sender     = (*Sender)(nil)
)

// Disabled is the Authorizer used when no service account is configured.
// Every digest run with something to send fails with AUTH_ASSERTION_ERROR.
type Disabled struct{}

// Authorize always fails.
func (Disabled) Authorize(context.Context) (digest.Sender, error) {
	return nil, apperror.NewAuthAssertion("push provider is not configured", nil)
}
