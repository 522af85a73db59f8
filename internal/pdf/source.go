package pdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"

	"decklens/internal/domain"
	"decklens/internal/port"
)

// Source is a MuPDF-backed document source. The fitz handle serves native
// text, HTML rendering and rasterization; a secondary reader serves the
// row/span structure used for structural reconstruction. The secondary
// reader is best effort: some files MuPDF accepts cannot be parsed by it,
// in which case PageRows reports an error and the cascade moves on.
type Source struct {
	path string
	doc  *fitz.Document

	mu       sync.Mutex
	rows     *lpdf.Reader
	rowsFile *os.File
}

// Opener opens PDF files from the local filesystem.
type Opener struct{}

// NewOpener creates a PDF document opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the PDF at path. A missing file maps to
// domain.ErrDocumentNotFound, an unparseable one to domain.ErrDocumentOpenFailed.
func (o *Opener) Open(path string) (port.DocumentSource, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentOpenFailed, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentOpenFailed, err)
	}

	src := &Source{path: path, doc: doc}

	// The row reader failing is not fatal; structural recovery is just
	// unavailable for this file.
	if f, r, rerr := lpdf.Open(path); rerr == nil {
		src.rowsFile = f
		src.rows = r
	}

	return src, nil
}

// PageCount returns the number of pages in the document.
func (s *Source) PageCount() int {
	return s.doc.NumPage()
}

// PageText returns the native text layer of the 1-based page.
func (s *Source) PageText(pageNumber int) (string, error) {
	if err := s.checkPage(pageNumber); err != nil {
		return "", err
	}
	text, err := s.doc.Text(pageNumber - 1)
	if err != nil {
		return "", fmt.Errorf("pdf.PageText: page %d: %w", pageNumber, err)
	}
	return text, nil
}

// PageHTML returns an HTML rendering of the 1-based page.
func (s *Source) PageHTML(pageNumber int) (string, error) {
	if err := s.checkPage(pageNumber); err != nil {
		return "", err
	}
	html, err := s.doc.HTML(pageNumber-1, false)
	if err != nil {
		return "", fmt.Errorf("pdf.PageHTML: page %d: %w", pageNumber, err)
	}
	return html, nil
}

// PageImagePNG rasterizes the 1-based page to PNG at the given DPI.
func (s *Source) PageImagePNG(pageNumber int, dpi int) ([]byte, error) {
	if err := s.checkPage(pageNumber); err != nil {
		return nil, err
	}
	png, err := s.doc.ImagePNG(pageNumber-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("pdf.PageImagePNG: page %d: %w", pageNumber, err)
	}
	return png, nil
}

// PageRows returns the row/span structure of the 1-based page.
func (s *Source) PageRows(pageNumber int) ([]port.TextRow, error) {
	if err := s.checkPage(pageNumber); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows == nil {
		return nil, fmt.Errorf("pdf.PageRows: row reader unavailable for %s", s.path)
	}
	if pageNumber > s.rows.NumPage() {
		return nil, fmt.Errorf("pdf.PageRows: page %d beyond row reader range", pageNumber)
	}

	page := s.rows.Page(pageNumber)
	if page.V.IsNull() {
		return nil, fmt.Errorf("pdf.PageRows: page %d has no content", pageNumber)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("pdf.PageRows: page %d: %w", pageNumber, err)
	}

	out := make([]port.TextRow, 0, len(rows))
	for _, row := range rows {
		spans := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			spans = append(spans, word.S)
		}
		out = append(out, port.TextRow{Spans: spans})
	}
	return out, nil
}

// Close releases the document handles.
func (s *Source) Close() error {
	var firstErr error
	if s.doc != nil {
		if err := s.doc.Close(); err != nil {
			firstErr = err
		}
		s.doc = nil
	}
	if s.rowsFile != nil {
		if err := s.rowsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.rowsFile = nil
		s.rows = nil
	}
	return firstErr
}

func (s *Source) checkPage(pageNumber int) error {
	if pageNumber < 1 || pageNumber > s.doc.NumPage() {
		return fmt.Errorf("pdf: page %d out of range 1..%d", pageNumber, s.doc.NumPage())
	}
	return nil
}
