package models

// DocumentKind identifies how an uploaded file is packaged for the OCR service.
type DocumentKind string

const (
	DocumentKindPDF   DocumentKind = "pdf"
	DocumentKindImage DocumentKind = "image"
)

// ProcessingSteps tracks per-stage completion for one document.
type ProcessingSteps struct {
	OCRDone         bool `json:"ocrDone"`
	TranslationDone bool `json:"translationDone"`
}

// Document is the per-document record of one processing run. Each stage writes
// either a result or an error string; a stage failure never aborts the batch,
// it is stored here and the pipeline moves on to the next document.
type Document struct {
	ID                string          `json:"id"`
	FileID            string          `json:"fileId"`
	Name              string          `json:"name"`
	Kind              DocumentKind    `json:"kind"`
	PageCount         int             `json:"pageCount"`
	PreviewCount      int             `json:"previewCount"`
	IngestError       string          `json:"ingestError,omitempty"`
	OCRResult         string          `json:"ocrResult,omitempty"`
	OCRError          string          `json:"ocrError,omitempty"`
	TranslationResult string          `json:"translationResult,omitempty"`
	TranslationError  string          `json:"translationError,omitempty"`
	Steps             ProcessingSteps `json:"steps"`
}

// NewDocument creates a Document for one uploaded file. A record is created
// even when ingestion later fails, so every input file keeps its slot in the
// batch regardless of outcome.
func NewDocument(id, fileID, name string, kind DocumentKind) *Document {
	return &Document{
		ID:     id,
		FileID: fileID,
		Name:   name,
		Kind:   kind,
	}
}

// OCRText returns the display surface for the OCR stage: the error string when
// a stage failed, otherwise the recognized Markdown. Failed documents keep
// their slot, so the surface is never ambiguous about which document it
// belongs to.
func (d *Document) OCRText() string {
	if d.IngestError != "" {
		return d.IngestError
	}
	if d.OCRError != "" {
		return d.OCRError
	}
	return d.OCRResult
}

// TranslationText returns the display surface for the translation stage.
func (d *Document) TranslationText() string {
	if d.TranslationError != "" {
		return d.TranslationError
	}
	return d.TranslationResult
}
