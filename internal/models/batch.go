package models

// BatchStatus represents the status of a processing batch.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusComplete   BatchStatus = "complete"
	BatchStatusError      BatchStatus = "error"
)

// Processing stage names reported in batch progress.
const (
	StageIngest    = "ingest"
	StageOCR       = "ocr"
	StageTranslate = "translate"
)

// BatchProgress reports which document and stage the pipeline is currently on.
type BatchProgress struct {
	CurrentIndex int    `json:"currentIndex"`
	CurrentFile  string `json:"currentFile,omitempty"`
	Stage        string `json:"stage,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Batch represents one "Process Documents" run over a set of uploaded files.
type Batch struct {
	ID             string        `json:"id"`
	Status         BatchStatus   `json:"status"`
	DocumentType   DocumentKind  `json:"documentType"`
	TargetLanguage string        `json:"targetLanguage,omitempty"`
	Translate      bool          `json:"translate"`
	Documents      []*Document   `json:"documents"`
	Progress       BatchProgress `json:"progress"`
	Error          string        `json:"error,omitempty"`
	StartTime      int64         `json:"startTime,omitempty"` // Unix ms
	EndTime        int64         `json:"endTime,omitempty"`   // Unix ms
}

// NewBatch creates a new Batch in pending status.
func NewBatch(id string, kind DocumentKind, targetLanguage string, translate bool) *Batch {
	return &Batch{
		ID:             id,
		Status:         BatchStatusPending,
		DocumentType:   kind,
		TargetLanguage: targetLanguage,
		Translate:      translate,
		Documents:      make([]*Document, 0),
	}
}
