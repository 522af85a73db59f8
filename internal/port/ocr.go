package port

import "context"

// OCRInput carries a rasterized page image for text recognition.
type OCRInput struct {
	ImagePNG   []byte
	PageNumber int
	DPI        int
}

// OCROutput contains the recognized text. No structure is guaranteed beyond
// the engine's best effort at preserving layout.
type OCROutput struct {
	Text      string
	ModelUsed string
}

// OCREngine abstracts image-to-text recognition for a single page image.
type OCREngine interface {
	Recognize(ctx context.Context, input OCRInput) (*OCROutput, error)
}
