package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTokenEndpoint = "https://generativelanguage.googleapis.com/v1alpha/auth_tokens"

// EphemeralToken is a short-lived credential that lets a client connect the
// live session socket without carrying the long-lived API key.
type EphemeralToken struct {
	Name string `json:"name"`
}

type ephemeralTokenRequest struct {
	Uses       int    `json:"uses,omitempty"`
	ExpireTime string `json:"expireTime,omitempty"`
}

// TokenProvisioner requests ephemeral tokens from the auth-token endpoint.
type TokenProvisioner struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// TokenOption configures a TokenProvisioner.
type TokenOption func(*TokenProvisioner)

func WithTokenEndpoint(endpoint string) TokenOption {
	return func(p *TokenProvisioner) { p.endpoint = endpoint }
}

func WithTokenAPIKey(apiKey string) TokenOption {
	return func(p *TokenProvisioner) { p.apiKey = apiKey }
}

func WithTokenHTTPClient(client *http.Client) TokenOption {
	return func(p *TokenProvisioner) { p.httpClient = client }
}

// NewTokenProvisioner builds a provisioner backed by an instrumented HTTP
// client. The API key falls back to GEMINI_API_KEY.
func NewTokenProvisioner(opts ...TokenOption) (*TokenProvisioner, error) {
	p := &TokenProvisioner{
		endpoint: defaultTokenEndpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("GEMINI_API_KEY")
		if p.apiKey == "" {
			return nil, ErrMissingCredentials
		}
	}

	return p, nil
}

// CreateEphemeralToken provisions a token valid for the given number of
// connects within the time-to-live window.
func (p *TokenProvisioner) CreateEphemeralToken(ctx context.Context, uses int, ttl time.Duration) (*EphemeralToken, error) {
	ctx, span := tracer.Start(ctx, "create ephemeral token")
	defer span.End()

	body, err := json.Marshal(ephemeralTokenRequest{
		Uses:       uses,
		ExpireTime: time.Now().Add(ttl).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", p.apiKey)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return nil, fmt.Errorf("token request rejected with status %d: %s", response.StatusCode, payload)
	}

	var token EphemeralToken
	if err := json.NewDecoder(response.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &token, nil
}
