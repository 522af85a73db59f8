package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"decklens/internal/config"
	"decklens/internal/ocr"
	"decklens/internal/port"
)

func init() {
	ocr.RegisterEngine("tesseract", func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return NewEngine(cfg), nil
	})
}

// Engine implements port.OCREngine using the gosseract client. Each Recognize
// call creates a fresh client; gosseract clients are not safe for concurrent
// use.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine creates a Tesseract-backed OCR engine from config.
func NewEngine(cfg *config.OCRConfig) *Engine {
	var langs []string
	for _, l := range strings.Split(cfg.Languages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Engine{
		languages:     langs,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Recognize(ctx context.Context, in port.OCRInput) (*port.OCROutput, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if err := c.SetImageFromBytes(in.ImagePNG); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	return &port.OCROutput{
		Text:      strings.TrimSpace(text),
		ModelUsed: "tesseract",
	}, nil
}
