package session

import (
	"sync"
	"time"

	"github.com/doc-translator/backend/internal/models"
)

// BatchState owns the mutable record of one processing batch. The pipeline
// goroutine is the only writer; HTTP handlers read concurrently through
// Snapshot and Document. Every stage result is keyed by document ID rather
// than slice position, so a failed stage can never shift later results onto
// the wrong document.
type BatchState struct {
	mu       sync.RWMutex
	batch    *models.Batch
	docIndex map[string]int
}

// NewBatchState wraps a freshly created batch.
func NewBatchState(batch *models.Batch) *BatchState {
	return &BatchState{
		batch:    batch,
		docIndex: make(map[string]int),
	}
}

// ID returns the batch identifier.
func (s *BatchState) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch.ID
}

// Status returns the current batch status.
func (s *BatchState) Status() models.BatchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch.Status
}

// Reset clears all per-document results and progress in one critical section.
// Both the document list and the index map are replaced together so a reader
// can never observe a partially cleared batch.
func (s *BatchState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Documents = make([]*models.Document, 0)
	s.batch.Progress = models.BatchProgress{}
	s.batch.Error = ""
	s.docIndex = make(map[string]int)
}

// MarkProcessing transitions the batch into the processing state and stamps
// the start time.
func (s *BatchState) MarkProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Status = models.BatchStatusProcessing
	s.batch.StartTime = time.Now().UnixMilli()
}

// MarkComplete transitions the batch into the complete state.
func (s *BatchState) MarkComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Status = models.BatchStatusComplete
	s.batch.EndTime = time.Now().UnixMilli()
}

// MarkError records a batch-level failure. Per-document stage failures never
// use this; they degrade to error strings on the document itself.
func (s *BatchState) MarkError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Status = models.BatchStatusError
	s.batch.Error = msg
	s.batch.EndTime = time.Now().UnixMilli()
}

// AppendDocument adds a document record to the batch. Called once per input
// file before any stage runs, so every file occupies a slot even when a later
// stage fails.
func (s *BatchState) AppendDocument(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docIndex[doc.ID] = len(s.batch.Documents)
	s.batch.Documents = append(s.batch.Documents, doc)
}

// SetProgress records which document and stage the pipeline is currently on.
func (s *BatchState) SetProgress(index int, file, stage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Progress = models.BatchProgress{
		CurrentIndex: index,
		CurrentFile:  file,
		Stage:        stage,
		Message:      message,
	}
}

// SetPageCount records how many pages the source document has.
func (s *BatchState) SetPageCount(docID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.PageCount = n
	}
}

// SetPreviewCount records how many preview pages were rendered.
func (s *BatchState) SetPreviewCount(docID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.PreviewCount = n
	}
}

// SetIngestError records an unreadable upload. The document keeps its slot
// but no later stage runs for it.
func (s *BatchState) SetIngestError(docID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.IngestError = msg
	}
}

// SetOCRResult stores the recognized Markdown and marks the OCR step done.
func (s *BatchState) SetOCRResult(docID, markdown string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.OCRResult = markdown
		doc.Steps.OCRDone = true
	}
}

// SetOCRError stores the degraded error string for a failed OCR call.
func (s *BatchState) SetOCRError(docID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.OCRError = msg
	}
}

// SetTranslationResult stores the translated text and marks the step done.
func (s *BatchState) SetTranslationResult(docID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.TranslationResult = text
		doc.Steps.TranslationDone = true
	}
}

// SetTranslationError stores the degraded error string for a failed
// translation call.
func (s *BatchState) SetTranslationError(docID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc := s.doc(docID); doc != nil {
		doc.TranslationError = msg
	}
}

// Document returns a copy of one document record by ID.
func (s *BatchState) Document(docID string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.doc(docID)
	if doc == nil {
		return models.Document{}, false
	}
	return *doc, true
}

// Snapshot returns a deep copy of the batch safe to serialize while the
// pipeline keeps writing.
func (s *BatchState) Snapshot() *models.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := *s.batch
	out.Documents = make([]*models.Document, len(s.batch.Documents))
	for i, doc := range s.batch.Documents {
		cp := *doc
		out.Documents[i] = &cp
	}
	return &out
}

// doc looks up a document by ID. Callers must hold the lock.
func (s *BatchState) doc(docID string) *models.Document {
	i, ok := s.docIndex[docID]
	if !ok {
		return nil
	}
	return s.batch.Documents[i]
}
