// Package pdf provides PDF validation and page rasterization for the
// ingestion pipeline.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Engine validates PDF bytes and rasterizes pages for previews.
type Engine interface {
	// Validate checks that the bytes parse as a PDF and returns the page count.
	Validate(pdfBytes []byte) (int, error)
	// RenderPages rasterizes every page at the given DPI and returns
	// PNG-encoded images in page order. A zero-page document yields an empty
	// slice, not an error.
	RenderPages(pdfBytes []byte, dpi int) ([][]byte, error)
}

// FitzEngine implements Engine with MuPDF for rendering and pdfcpu for
// validation.
type FitzEngine struct{}

// NewFitzEngine creates a new FitzEngine.
func NewFitzEngine() *FitzEngine {
	return &FitzEngine{}
}

// Validate parses the PDF and returns its page count. Validation is relaxed:
// real-world PDFs frequently violate the format rules but still render fine.
func (e *FitzEngine) Validate(pdfBytes []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	count, err := api.PageCount(bytes.NewReader(pdfBytes), cfg)
	if err != nil {
		return 0, fmt.Errorf("validating pdf: %w", err)
	}

	return count, nil
}

// RenderPages rasterizes every page to PNG at the given DPI.
func (e *FitzEngine) RenderPages(pdfBytes []byte, dpi int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}
