// Package ingest normalizes uploaded files into OCR-ready payload descriptors
// and preview images.
package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	// Registered for image validation of the supported upload types.
	_ "image/jpeg"
	_ "image/png"

	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/pdf"
)

// DefaultRenderDPI is the preview rasterization resolution.
const DefaultRenderDPI = 150

// Result is the normalized form of one uploaded file: the payload descriptor
// consumed by the OCR service, preview data URIs for the gallery, and the
// retained original bytes for images. PDFs carry nil RawBytes since the full
// document is already embedded in the descriptor.
type Result struct {
	Descriptor models.DocumentDescriptor
	PreviewSrc []string
	RawBytes   []byte
	PageCount  int
}

// Adapter converts uploaded files into Results.
type Adapter struct {
	engine pdf.Engine
	dpi    int
}

// NewAdapter creates an Adapter rendering previews at the given DPI.
func NewAdapter(engine pdf.Engine, dpi int) *Adapter {
	if dpi <= 0 {
		dpi = DefaultRenderDPI
	}
	return &Adapter{engine: engine, dpi: dpi}
}

// Ingest dispatches on the declared document kind.
func (a *Adapter) Ingest(fileBytes []byte, kind models.DocumentKind, mimeType string) (*Result, error) {
	switch kind {
	case models.DocumentKindPDF:
		return a.IngestPDF(fileBytes)
	case models.DocumentKindImage:
		return a.IngestImage(fileBytes, mimeType)
	default:
		return nil, fmt.Errorf("unsupported document kind: %s", kind)
	}
}

// IngestPDF validates the PDF, rasterizes every page for preview and embeds
// the whole document in a document_url descriptor. A zero-page PDF yields an
// empty preview sequence without failing.
func (a *Adapter) IngestPDF(fileBytes []byte) (*Result, error) {
	pageCount, err := a.engine.Validate(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot read file as PDF: %w", err)
	}

	previews := make([]string, 0, pageCount)
	if pageCount > 0 {
		pages, err := a.engine.RenderPages(fileBytes, a.dpi)
		if err != nil {
			return nil, fmt.Errorf("rendering preview pages: %w", err)
		}
		for _, page := range pages {
			previews = append(previews, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(page))
		}
	}

	dataURI := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(fileBytes)

	return &Result{
		Descriptor: models.PDFDescriptor(dataURI),
		PreviewSrc: previews,
		PageCount:  pageCount,
	}, nil
}

// IngestImage encodes the raw bytes once; the same data URI serves as both
// the OCR payload and the singleton preview. Raw bytes are retained for
// downstream re-export.
func (a *Adapter) IngestImage(fileBytes []byte, mimeType string) (*Result, error) {
	sniffed, err := sniffImageMime(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot read file as image: %w", err)
	}
	if mimeType == "" {
		mimeType = sniffed
	} else if mimeType != sniffed {
		return nil, fmt.Errorf("declared type %s does not match image content %s", mimeType, sniffed)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(fileBytes))

	return &Result{
		Descriptor: models.ImageDescriptor(dataURI),
		PreviewSrc: []string{dataURI},
		RawBytes:   fileBytes,
		PageCount:  1,
	}, nil
}

func sniffImageMime(fileBytes []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(fileBytes))
	if err != nil {
		return "", err
	}
	switch format {
	case "jpeg":
		return "image/jpeg", nil
	case "png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("unsupported image format: %s", format)
	}
}
