package ocr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"decklens/internal/config"
	"decklens/internal/ocr"
	"decklens/internal/port"
)

func TestNewEngine_NoneDisablesOCR(t *testing.T) {
	engine, err := ocr.NewEngine(&config.OCRConfig{Provider: "none"})

	assert.NoError(t, err)
	assert.Nil(t, engine)
}

func TestNewEngine_EmptyDisablesOCR(t *testing.T) {
	engine, err := ocr.NewEngine(&config.OCRConfig{})

	assert.NoError(t, err)
	assert.Nil(t, engine)
}

func TestNewEngine_UnknownProvider(t *testing.T) {
	engine, err := ocr.NewEngine(&config.OCRConfig{Provider: "nonexistent-engine-xyz"})

	assert.Nil(t, engine)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ocr provider")
}

func TestNewEngine_Registered(t *testing.T) {
	ocr.RegisterEngine("test-engine", func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return &stubEngine{}, nil
	})

	engine, err := ocr.NewEngine(&config.OCRConfig{Provider: "test-engine"})

	assert.NoError(t, err)
	assert.NotNil(t, engine)
}

// stubEngine is a minimal OCREngine for testing the factory.
type stubEngine struct{}

func (s *stubEngine) Recognize(_ context.Context, _ port.OCRInput) (*port.OCROutput, error) {
	return &port.OCROutput{Text: "stub"}, nil
}
