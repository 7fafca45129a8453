package ingest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/doc-translator/backend/internal/models"
)

// fakeEngine implements pdf.Engine without MuPDF.
type fakeEngine struct {
	pageCount   int
	validateErr error
	renderErr   error
	pages       [][]byte
}

func (f *fakeEngine) Validate(pdfBytes []byte) (int, error) {
	if f.validateErr != nil {
		return 0, f.validateErr
	}
	return f.pageCount, nil
}

func (f *fakeEngine) RenderPages(pdfBytes []byte, dpi int) ([][]byte, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return f.pages, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestIngestPDFSinglePage(t *testing.T) {
	engine := &fakeEngine{pageCount: 1, pages: [][]byte{[]byte("page1png")}}
	adapter := NewAdapter(engine, 150)

	pdfData := []byte("%PDF-1.4 fake")
	res, err := adapter.Ingest(pdfData, models.DocumentKindPDF, "application/pdf")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if res.Descriptor.Type != models.DescriptorTypeDocumentURL {
		t.Errorf("descriptor type = %q, want document_url", res.Descriptor.Type)
	}
	wantDoc := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdfData)
	if res.Descriptor.DocumentURL != wantDoc {
		t.Errorf("document payload does not embed the original bytes")
	}
	if len(res.PreviewSrc) != 1 {
		t.Fatalf("preview count = %d, want 1", len(res.PreviewSrc))
	}
	if !strings.HasPrefix(res.PreviewSrc[0], "data:image/png;base64,") {
		t.Errorf("preview is not a png data URI: %q", res.PreviewSrc[0][:40])
	}
	if res.RawBytes != nil {
		t.Error("RawBytes should be nil for PDFs")
	}
	if res.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", res.PageCount)
	}
}

func TestIngestPDFMultiPage(t *testing.T) {
	engine := &fakeEngine{pageCount: 2, pages: [][]byte{[]byte("p1"), []byte("p2")}}
	adapter := NewAdapter(engine, 150)

	res, err := adapter.IngestPDF([]byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}
	if len(res.PreviewSrc) != 2 {
		t.Errorf("preview count = %d, want 2", len(res.PreviewSrc))
	}
	if res.Descriptor.Type != models.DescriptorTypeDocumentURL {
		t.Errorf("descriptor type = %q", res.Descriptor.Type)
	}
}

func TestIngestPDFZeroPages(t *testing.T) {
	// A zero-page PDF must not fail; it surfaces as an empty preview state.
	engine := &fakeEngine{pageCount: 0, renderErr: errors.New("render should not be called")}
	adapter := NewAdapter(engine, 150)

	res, err := adapter.IngestPDF([]byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("zero-page PDF should not fail ingestion: %v", err)
	}
	if len(res.PreviewSrc) != 0 {
		t.Errorf("preview count = %d, want 0", len(res.PreviewSrc))
	}
	if res.Descriptor.DocumentURL == "" {
		t.Error("document payload should still be populated")
	}
}

func TestIngestPDFInvalid(t *testing.T) {
	engine := &fakeEngine{validateErr: errors.New("not a pdf")}
	adapter := NewAdapter(engine, 150)

	if _, err := adapter.IngestPDF([]byte("garbage")); err == nil {
		t.Fatal("expected error for unparseable PDF")
	}
}

func TestIngestImage(t *testing.T) {
	tests := []struct {
		name     string
		data     func(*testing.T) []byte
		declared string
	}{
		{"png", pngBytes, "image/png"},
		{"jpeg", jpegBytes, "image/jpeg"},
		{"sniffed type", pngBytes, ""},
	}

	adapter := NewAdapter(&fakeEngine{}, 150)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data(t)
			res, err := adapter.Ingest(data, models.DocumentKindImage, tt.declared)
			if err != nil {
				t.Fatalf("Ingest failed: %v", err)
			}

			if res.Descriptor.Type != models.DescriptorTypeImageURL {
				t.Errorf("descriptor type = %q, want image_url", res.Descriptor.Type)
			}
			if len(res.PreviewSrc) != 1 {
				t.Fatalf("preview count = %d, want 1", len(res.PreviewSrc))
			}
			// Payload and preview reuse the same encoded string.
			if res.PreviewSrc[0] != res.Descriptor.ImageURL {
				t.Error("preview and OCR payload should share the encoded string")
			}
			if !bytes.Equal(res.RawBytes, data) {
				t.Error("RawBytes should retain the original image bytes")
			}
			if res.PageCount != 1 {
				t.Errorf("PageCount = %d, want 1", res.PageCount)
			}
		})
	}
}

func TestIngestImageEmbeddedMimeMatchesDeclared(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{}, 150)

	res, err := adapter.IngestImage(jpegBytes(t), "image/jpeg")
	if err != nil {
		t.Fatalf("IngestImage failed: %v", err)
	}
	if !strings.HasPrefix(res.Descriptor.ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("embedded MIME does not match declared type: %q", res.Descriptor.ImageURL[:40])
	}
}

func TestIngestImageRejectsMismatchAndGarbage(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{}, 150)

	if _, err := adapter.IngestImage(pngBytes(t), "image/jpeg"); err == nil {
		t.Error("expected error when declared type mismatches content")
	}
	if _, err := adapter.IngestImage([]byte("not an image"), "image/png"); err == nil {
		t.Error("expected error for undecodable bytes")
	}
}

func TestIngestUnknownKind(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{}, 150)
	if _, err := adapter.Ingest([]byte("x"), models.DocumentKind("spreadsheet"), ""); err == nil {
		t.Error("expected error for unsupported kind")
	}
}
