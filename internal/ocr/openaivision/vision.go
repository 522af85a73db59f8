package openaivision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"decklens/internal/config"
	"decklens/internal/ocr"
	"decklens/internal/port"
)

const (
	apiURL = "https://api.openai.com/v1/chat/completions"

	maxCompletionTokens = 4096

	transcribePrompt = `Transcribe all text visible in this slide image. Preserve the reading order. Return only the transcribed text with no commentary and no description of the image.`
)

func init() {
	ocr.RegisterEngine("openai", func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return NewEngine(cfg), nil
	})
}

// Engine implements port.OCREngine using an OpenAI vision model over the Chat
// Completions API.
type Engine struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewEngine creates a vision OCR engine from config.
func NewEngine(cfg *config.OCRConfig) *Engine {
	return newEngine(cfg, apiURL)
}

// NewEngineWithEndpoint creates an engine pointing at a custom API endpoint (for testing).
func NewEngineWithEndpoint(cfg *config.OCRConfig, endpoint string) *Engine {
	return newEngine(cfg, endpoint)
}

func newEngine(cfg *config.OCRConfig, endpoint string) *Engine {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Engine{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Recognize(ctx context.Context, in port.OCRInput) (*port.OCROutput, error) {
	encoded := base64.StdEncoding.EncodeToString(in.ImagePNG)
	dataURI := fmt.Sprintf("data:image/png;base64,%s", encoded)

	reqBody := map[string]interface{}{
		"model":                 e.model,
		"max_completion_tokens": maxCompletionTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url": dataURI,
						},
					},
					{
						"type": "text",
						"text": transcribePrompt,
					},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	return &port.OCROutput{
		Text:      strings.TrimSpace(parsed.Choices[0].Message.Content),
		ModelUsed: e.model,
	}, nil
}
