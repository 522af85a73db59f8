package tesseract_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"decklens/internal/config"
	"decklens/internal/ocr/tesseract"
	"decklens/internal/port"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderTextPNG(t *testing.T, text string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := (&png.Encoder{}).Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngine_Recognize(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := tesseract.NewEngine(&config.OCRConfig{Provider: "tesseract", Languages: "eng"})

	result, err := engine.Recognize(context.Background(), port.OCRInput{
		ImagePNG:   renderTextPNG(t, "Hello Deck"),
		PageNumber: 1,
		DPI:        300,
	})

	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToLower(result.Text)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "deck") {
		t.Fatalf("unexpected OCR output: %q", result.Text)
	}
	if result.ModelUsed != "tesseract" {
		t.Fatalf("unexpected model: %s", result.ModelUsed)
	}
}

func TestEngine_Recognize_CancelledContext(t *testing.T) {
	engine := tesseract.NewEngine(&config.OCRConfig{Provider: "tesseract"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, port.OCRInput{ImagePNG: []byte{1}})

	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
