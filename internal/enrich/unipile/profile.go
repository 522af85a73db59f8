package unipile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"decklens/internal/config"
)

const defaultBaseURL = "https://api22.unipile.com:15236"

// ProfileError indicates the Unipile API rejected a profile lookup.
type ProfileError struct {
	StatusCode int
	Body       string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("unipile API error (status %d): %s", e.StatusCode, e.Body)
}

// Client implements port.ProfileFetcher using the Unipile users API.
type Client struct {
	baseURL   string
	apiKey    string
	accountID string
	client    *http.Client
}

// NewClient creates a Unipile profile client from config.
func NewClient(cfg *config.ProfileConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		accountID: cfg.AccountID,
		client:    &http.Client{Timeout: timeout},
	}
}

// FetchProfile retrieves the public profile for a directory username, for
// example "l-mangallon". The raw provider payload is returned unparsed.
func (c *Client) FetchProfile(ctx context.Context, identifier string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(identifier))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("account_id", c.accountID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling unipile API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProfileError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("invalid JSON in profile response")
	}
	return json.RawMessage(respBody), nil
}
