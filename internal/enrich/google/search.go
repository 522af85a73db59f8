package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"decklens/internal/config"
	"decklens/internal/port"
)

const apiBaseURL = "https://www.googleapis.com/customsearch/v1"

// maxResultsPerRequest is the Google CSE per-request ceiling.
const maxResultsPerRequest = 10

// Searcher implements port.DirectorySearcher using the Google Custom Search
// API with a LinkedIn-scoped engine.
type Searcher struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
}

// NewSearcher creates a Google CSE searcher from config.
func NewSearcher(cfg *config.SearchConfig) *Searcher {
	return newSearcher(cfg, apiBaseURL)
}

// NewSearcherWithEndpoint creates a searcher pointing at a custom API endpoint (for testing).
func NewSearcherWithEndpoint(cfg *config.SearchConfig, endpoint string) *Searcher {
	return newSearcher(cfg, endpoint)
}

func newSearcher(cfg *config.SearchConfig, endpoint string) *Searcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Searcher{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]port.SearchResult, error) {
	if limit <= 0 || limit > maxResultsPerRequest {
		limit = maxResultsPerRequest
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("key", s.apiKey)
	q.Set("cx", s.engineID)
	q.Set("num", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling google search API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	results := make([]port.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, port.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
