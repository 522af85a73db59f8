package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decklens/internal/analyzer"
	"decklens/internal/analyzer/claude"
	"decklens/internal/config"
	"decklens/internal/port"
)

func newClaudeTestAnalyzer(serverURL string) *claude.Analyzer {
	cfg := &config.AnalyzerProviderConfig{
		Provider:     "claude",
		APIKey:       "test-claude-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  30,
	}
	return claude.NewAnalyzerWithEndpoint(cfg, serverURL)
}

func claudeSuccessResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"stop_reason": "end_turn",
	}
}

func TestClaudeAnalyzer_Analyze_Success(t *testing.T) {
	analysisText := "```json\n{\"startup_name\": \"Acme\"}\n```"
	responseBody := claudeSuccessResponse(analysisText)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify auth headers
		assert.Equal(t, "test-claude-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// Verify request body
		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(8192), reqBody["max_tokens"])
		assert.Contains(t, reqBody["system"], "startup analyst")

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		assert.Contains(t, msg["content"], "Analyze this startup pitch deck content")
		assert.Contains(t, msg["content"], "Page 1:\nAcme deck")

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	a := newClaudeTestAnalyzer(server.URL)

	result, err := a.Analyze(context.Background(), port.AnalyzeInput{
		DocumentText: "Page 1:\nAcme deck",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, analysisText, result.Analysis)
	assert.Equal(t, "claude-sonnet-4-20250514", result.ModelUsed)
	assert.NotEmpty(t, result.PromptUsed)
}

func TestClaudeAnalyzer_Analyze_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	a := newClaudeTestAnalyzer(server.URL)

	result, err := a.Analyze(context.Background(), port.AnalyzeInput{DocumentText: "deck"})

	assert.Nil(t, result)
	assert.Error(t, err)

	var rlErr *analyzer.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Contains(t, rlErr.Err.Error(), "anthropic API error (status 429)")
}

func TestClaudeAnalyzer_Analyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error"}}`))
	}))
	defer server.Close()

	a := newClaudeTestAnalyzer(server.URL)

	result, err := a.Analyze(context.Background(), port.AnalyzeInput{DocumentText: "deck"})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic API error (status 500)")
}

func TestClaudeAnalyzer_Analyze_EmptyResponse(t *testing.T) {
	responseBody := map[string]interface{}{
		"content":     []map[string]interface{}{},
		"stop_reason": "end_turn",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	a := newClaudeTestAnalyzer(server.URL)

	result, err := a.Analyze(context.Background(), port.AnalyzeInput{DocumentText: "deck"})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestClaudeAnalyzer_Analyze_TruncatedOutput(t *testing.T) {
	responseBody := map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": "partial"},
		},
		"stop_reason": "max_tokens",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	a := newClaudeTestAnalyzer(server.URL)

	result, err := a.Analyze(context.Background(), port.AnalyzeInput{DocumentText: "deck"})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "output truncated")
}
