package port

// TextRow is one structural line of a page: the raw span strings the source
// stores for that line, in reading order. Spans may be empty strings.
type TextRow struct {
	Spans []string
}

// DocumentSource provides the per-page views needed by the extraction
// cascade. Page numbers are 1-based. Implementations own the underlying
// document handle and must be closed by the caller.
type DocumentSource interface {
	PageCount() int
	// PageText returns the page's native text layer as stored in the file.
	PageText(pageNumber int) (string, error)
	// PageRows returns the page's internal row/span structure for
	// structural reconstruction.
	PageRows(pageNumber int) ([]TextRow, error)
	// PageHTML returns an HTML rendering of the page.
	PageHTML(pageNumber int) (string, error)
	// PageImagePNG rasterizes the page to a PNG at the given DPI.
	PageImagePNG(pageNumber int, dpi int) ([]byte, error)
	Close() error
}

// DocumentOpener opens a document source from a local file path. A missing
// file maps to domain.ErrDocumentNotFound, an unreadable one to
// domain.ErrDocumentOpenFailed.
type DocumentOpener interface {
	Open(path string) (DocumentSource, error)
}
