package ocr

import (
	"fmt"

	"decklens/internal/config"
	"decklens/internal/port"
)

// EngineFactory is a function that creates an OCREngine from the OCR config.
type EngineFactory func(cfg *config.OCRConfig) (port.OCREngine, error)

// registry of OCR engine factories, populated by init() in each engine package
// or explicitly via RegisterEngine.
var engines = map[string]EngineFactory{}

// RegisterEngine registers an OCR engine factory by name.
func RegisterEngine(name string, factory EngineFactory) {
	engines[name] = factory
}

// NewEngine creates an OCREngine from config. Provider "none" or empty returns
// a nil engine, which disables vision recovery in the extraction cascade.
func NewEngine(cfg *config.OCRConfig) (port.OCREngine, error) {
	if cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}
	factory, ok := engines[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown ocr provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
