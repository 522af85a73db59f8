package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"decklens/internal/analyzer"
	"decklens/internal/config"
	"decklens/internal/port"
)

func TestFactory_RegisterAndCreate(t *testing.T) {
	analyzer.RegisterProvider("test-provider", func(cfg *config.AnalyzerProviderConfig) (port.Analyzer, error) {
		return &stubAnalyzer{model: cfg.DefaultModel}, nil
	})

	a, err := analyzer.NewAnalyzer(&config.AnalyzerProviderConfig{
		Provider:     "test-provider",
		DefaultModel: "test-model",
	})

	assert.NoError(t, err)
	assert.NotNil(t, a)
}

func TestFactory_UnknownProvider(t *testing.T) {
	a, err := analyzer.NewAnalyzer(&config.AnalyzerProviderConfig{
		Provider: "nonexistent-provider-xyz",
	})

	assert.Nil(t, a)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analyzer provider")
}

// stubAnalyzer is a minimal Analyzer for testing the factory.
type stubAnalyzer struct {
	model string
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	return &port.AnalyzeOutput{ModelUsed: s.model}, nil
}
