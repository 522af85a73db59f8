package extract

import (
	"context"
	"log"
	"strings"
	"sync"

	"decklens/internal/domain"
	"decklens/internal/port"
)

// minOCRChars is the acceptance bar for vision OCR output: anything at or
// below this length after trimming is treated as noise and discarded.
const minOCRChars = 50

// Config holds the fixed extraction settings.
type Config struct {
	RasterDPI   int
	PageWorkers int
}

// Extractor recovers the best available text for each page of a document
// using a cascade of strategies: native text layer, structural row
// reconstruction, HTML tag stripping, then vision OCR. Later strategies run
// only when the quality heuristics say the earlier result cannot be trusted.
type Extractor struct {
	ocr port.OCREngine
	cfg Config
}

// NewExtractor creates an extractor. ocr may be nil, in which case the
// cascade stops after markup recovery.
func NewExtractor(ocr port.OCREngine, cfg Config) *Extractor {
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = 300
	}
	if cfg.PageWorkers <= 0 {
		cfg.PageWorkers = 4
	}
	return &Extractor{ocr: ocr, cfg: cfg}
}

// ExtractAll runs the per-page cascade over the whole document with a
// bounded worker pool and returns the pages in ascending order. Per-page
// problems are recorded as quality flags, never as errors.
func (e *Extractor) ExtractAll(ctx context.Context, src port.DocumentSource, opts domain.AnalyzeOptions) []domain.Page {
	count := src.PageCount()
	pages := make([]domain.Page, count)

	sem := make(chan struct{}, e.cfg.PageWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()
			page := e.ExtractPage(ctx, src, n, opts)
			pages[n-1] = page
			if opts.Verbose {
				log.Printf("extractor.ExtractAll: page %d/%d method=%s chars=%d flags=%v",
					n, count, page.Method, len(page.Text), page.Flags)
			}
		}(i)
	}
	wg.Wait()

	return pages
}

// ExtractPage recovers the text of one 1-based page. When opts.ForceOCR is
// set the cheaper strategies are bypassed and the page goes straight to
// vision OCR, giving the whole document a uniform extraction method.
func (e *Extractor) ExtractPage(ctx context.Context, src port.DocumentSource, pageNumber int, opts domain.AnalyzeOptions) domain.Page {
	var flags []domain.QualityFlag

	native, err := src.PageText(pageNumber)
	if err != nil {
		// An unreadable text layer behaves like an empty one; the
		// cascade takes over from here.
		native = ""
	}

	text := native
	method := domain.MethodNative

	if opts.ForceOCR {
		text, method = e.tryOCR(ctx, src, pageNumber, text, method, &flags)
		return newPage(pageNumber, text, method, flags)
	}

	needs, needFlags := NeedsEnhancement(native)
	flags = append(flags, needFlags...)
	if !needs {
		return newPage(pageNumber, text, method, flags)
	}

	replaced := false

	// Structural reconstruction: rebuild from the page's row/span layer.
	if rows, rerr := src.PageRows(pageNumber); rerr != nil {
		flags = append(flags, domain.FlagStructuralError)
	} else if candidate := joinRows(rows); betterThan(candidate, text) {
		text = candidate
		method = domain.MethodStructural
		replaced = true
	}

	// Markup recovery: render to HTML, strip tags, collapse whitespace.
	if markup, merr := src.PageHTML(pageNumber); merr != nil {
		flags = append(flags, domain.FlagMarkupError)
	} else if candidate := StripTags(markup); betterThan(candidate, text) {
		text = candidate
		method = domain.MethodMarkup
		replaced = true
	}

	// Vision OCR is the expensive last resort: only when the native text
	// shows encoding damage, or nothing above produced a replacement.
	artifacts, artifactFlags := HasArtifacts(native)
	flags = append(flags, artifactFlags...)
	if artifacts || !replaced {
		text, method = e.tryOCR(ctx, src, pageNumber, text, method, &flags)
	}

	return newPage(pageNumber, text, method, flags)
}

// tryOCR rasterizes the page and runs it through the OCR engine. The result
// replaces the current candidate only when it clears minOCRChars; engine
// absence or failure keeps the candidate untouched.
func (e *Extractor) tryOCR(ctx context.Context, src port.DocumentSource, pageNumber int, current string, method domain.ExtractionMethod, flags *[]domain.QualityFlag) (string, domain.ExtractionMethod) {
	if e.ocr == nil {
		return current, method
	}

	png, err := src.PageImagePNG(pageNumber, e.cfg.RasterDPI)
	if err != nil {
		*flags = append(*flags, domain.FlagOCRError)
		return current, method
	}

	out, err := e.ocr.Recognize(ctx, port.OCRInput{
		ImagePNG:   png,
		PageNumber: pageNumber,
		DPI:        e.cfg.RasterDPI,
	})
	if err != nil {
		*flags = append(*flags, domain.FlagOCRError)
		return current, method
	}

	if len(strings.TrimSpace(out.Text)) > minOCRChars {
		return out.Text, domain.MethodVisionOCR
	}
	return current, method
}

// betterThan reports whether candidate should replace current: non-blank and
// strictly longer. Ties keep the earlier, cheaper candidate.
func betterThan(candidate, current string) bool {
	return strings.TrimSpace(candidate) != "" && len(candidate) > len(current)
}

// joinRows flattens the row/span structure into lines, dropping blank spans.
func joinRows(rows []port.TextRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row.Spans))
		for _, span := range row.Spans {
			if s := strings.TrimSpace(span); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func newPage(number int, text string, method domain.ExtractionMethod, flags []domain.QualityFlag) domain.Page {
	return domain.Page{
		Number: number,
		Text:   strings.TrimSpace(text),
		Method: method,
		Flags:  flags,
	}
}
