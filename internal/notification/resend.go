package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"bamboowoods/internal/config"
)

// ErrMissingAPIKey means the provider key variable is unset at send time.
var ErrMissingAPIKey = errors.New("server configuration error: missing email key")

const maxResponseBody = 1 << 20

// ProviderError is a non-2xx reply from the email provider. Body is the
// provider's payload as received.
type ProviderError struct {
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("email provider returned status %d", e.StatusCode)
	}
	return string(e.Body)
}

// ResendClient posts emails to a Resend-compatible endpoint. One attempt per
// call; no retry.
type ResendClient struct {
	endpoint   string
	apiKeyEnv  string
	httpClient *http.Client
	lookupEnv  func(string) (string, bool)
}

func NewResendClient(cfg config.EmailConfig) *ResendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendClient{
		endpoint:   cfg.Endpoint,
		apiKeyEnv:  cfg.APIKeyEnv,
		httpClient: &http.Client{Timeout: timeout},
		lookupEnv:  os.LookupEnv,
	}
}

func (c *ResendClient) apiKey() (string, error) {
	key, ok := c.lookupEnv(c.apiKeyEnv)
	if !ok || key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

func (c *ResendClient) Send(ctx context.Context, email Email) (json.RawMessage, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(email)
	if err != nil {
		return nil, fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: bytes.TrimSpace(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("provider returned non-JSON body with status %d", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}
