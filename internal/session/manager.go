package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/doc-translator/backend/internal/ingest"
	"github.com/doc-translator/backend/internal/models"
	"github.com/google/uuid"
)

// MaxBatches limits concurrent batches to prevent memory exhaustion
const MaxBatches = 10

// BatchMaxAge is how long to keep finished batches before cleanup
const BatchMaxAge = 30 * time.Minute

// BatchKeepAliveWindow is how long to keep batches that are actively being used
const BatchKeepAliveWindow = 5 * time.Minute

// ErrBatchNotFound reports a batch ID with no live entry.
var ErrBatchNotFound = errors.New("batch not found")

// Ingester normalizes an uploaded file into an OCR payload descriptor and
// preview images.
type Ingester interface {
	Ingest(fileBytes []byte, kind models.DocumentKind, mimeType string) (*ingest.Result, error)
}

// Recognizer extracts Markdown from a document payload.
type Recognizer interface {
	Process(ctx context.Context, doc models.DocumentDescriptor) (string, error)
}

// Translator produces a target-language rendition of Markdown text.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Pipeline bundles the three stage implementations the manager drives.
type Pipeline struct {
	Ingester   Ingester
	Recognizer Recognizer
	Translator Translator
}

// BatchFile identifies one uploaded file to process. The caller resolves
// storage paths before handing files to the manager.
type BatchFile struct {
	ID       string
	Name     string
	Path     string
	MimeType string
}

// batchEntry pairs the mutable batch state with its preview spill store.
type batchEntry struct {
	state        *BatchState
	previews     *PreviewStore
	lastAccessed time.Time
}

// Manager owns all active processing batches. Each batch runs on its own
// goroutine; documents inside a batch are processed strictly sequentially so
// the per-document stage writes stay single-writer.
type Manager struct {
	batches   map[string]*batchEntry
	mu        sync.RWMutex
	pipeline  Pipeline
	tempDir   string
	storeOpts PreviewStoreOptions
}

// NewManagerWithTempDir creates a batch manager with a specific temp directory.
func NewManagerWithTempDir(pipeline Pipeline, tempDir string) *Manager {
	return &Manager{
		batches:  make(map[string]*batchEntry),
		pipeline: pipeline,
		tempDir:  tempDir,
	}
}

// SetStoreOptions overrides the embedded database settings for preview spill
// stores. Call before the first StartBatch.
func (m *Manager) SetStoreOptions(opts PreviewStoreOptions) {
	m.storeOpts = opts
}

// StartBatch begins processing a set of uploaded files and returns the
// initial batch snapshot. Processing continues in the background; callers
// poll GetBatch or subscribe to the progress socket. At capacity the oldest
// finished batches are evicted first; when every slot still holds a running
// batch the start is refused.
func (m *Manager) StartBatch(files []BatchFile, kind models.DocumentKind, targetLanguage string, translate bool) (*models.Batch, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to process")
	}

	batchID := uuid.New().String()
	state := NewBatchState(models.NewBatch(batchID, kind, targetLanguage, translate))

	m.mu.Lock()
	m.evictFinishedLocked()
	if len(m.batches) >= MaxBatches {
		m.mu.Unlock()
		return nil, fmt.Errorf("too many active batches (limit %d), wait for a running batch to finish", MaxBatches)
	}
	m.batches[batchID] = &batchEntry{
		state:        state,
		lastAccessed: time.Now(),
	}
	m.mu.Unlock()

	go m.runBatch(batchID, files)

	return state.Snapshot(), nil
}

// runBatch drives one batch through ingest, OCR and translation. A stage
// failure degrades to an error string on that document and the loop moves on;
// only infrastructure failures (spill store creation, panics) fail the batch
// as a whole.
func (m *Manager) runBatch(batchID string, files []BatchFile) {
	logCtx := slog.With("batch", batchID[:8])

	// Recover from panics to prevent backend crash
	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Batch panicked", "panic", r)
			if state, ok := m.state(batchID); ok {
				state.MarkError(fmt.Sprintf("batch panicked: %v", r))
			}
		}
	}()

	state, ok := m.state(batchID)
	if !ok {
		return
	}

	start := time.Now()
	logCtx.Info("Starting batch", "files", len(files))

	state.Reset()
	state.MarkProcessing()

	previews, err := NewPreviewStoreWithOptions(m.tempDir, batchID, m.storeOpts)
	if err != nil {
		logCtx.Error("Failed to create preview store", "error", err)
		state.MarkError(fmt.Sprintf("failed to create preview storage: %v", err))
		return
	}

	m.mu.Lock()
	entry, ok := m.batches[batchID]
	if !ok {
		// Batch was cleaned up while starting
		m.mu.Unlock()
		previews.Close()
		return
	}
	entry.previews = previews
	m.mu.Unlock()

	batch := state.Snapshot()

	for i, file := range files {
		docID := uuid.New().String()
		state.AppendDocument(models.NewDocument(docID, file.ID, file.Name, batch.DocumentType))
		state.SetProgress(i, file.Name, models.StageIngest, fmt.Sprintf("Processing %s...", file.Name))

		logCtx.Info("Processing document", "index", i, "name", file.Name)

		data, err := os.ReadFile(file.Path)
		if err != nil {
			logCtx.Error("Failed to read upload", "name", file.Name, "error", err)
			state.SetIngestError(docID, fmt.Sprintf("Can't preview document: %v", err))
			continue
		}

		res, err := m.pipeline.Ingester.Ingest(data, batch.DocumentType, file.MimeType)
		if err != nil {
			logCtx.Error("Ingestion failed", "name", file.Name, "error", err)
			state.SetIngestError(docID, fmt.Sprintf("Can't preview document: %v", err))
			continue
		}

		state.SetPageCount(docID, res.PageCount)
		if err := previews.AddPreviews(docID, res.PreviewSrc); err != nil {
			// Previews are a display concern; OCR still gets its shot.
			logCtx.Error("Failed to store previews", "name", file.Name, "error", err)
		} else {
			state.SetPreviewCount(docID, len(res.PreviewSrc))
		}

		state.SetProgress(i, file.Name, models.StageOCR, fmt.Sprintf("Processing %s...", file.Name))

		// External calls carry no deadline. A slow provider stalls the
		// batch rather than losing a large document to a timeout.
		markdown, err := m.pipeline.Recognizer.Process(context.Background(), res.Descriptor)
		if err != nil {
			logCtx.Error("OCR failed", "name", file.Name, "error", err)
			state.SetOCRError(docID, fmt.Sprintf("Error processing OCR: %v", err))
			continue
		}
		state.SetOCRResult(docID, markdown)

		if batch.Translate {
			state.SetProgress(i, file.Name, models.StageTranslate, fmt.Sprintf("Translating %s...", file.Name))

			translated, err := m.pipeline.Translator.Translate(context.Background(), markdown, batch.TargetLanguage)
			if err != nil {
				logCtx.Error("Translation failed", "name", file.Name, "error", err)
				state.SetTranslationError(docID, fmt.Sprintf("Error processing translation: %v", err))
				continue
			}
			state.SetTranslationResult(docID, translated)
		}
	}

	state.MarkComplete()
	logCtx.Info("Batch complete", "documents", len(files), "elapsed", time.Since(start).Round(time.Millisecond))
}

// state returns the batch state by ID.
func (m *Manager) state(batchID string) (*BatchState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.batches[batchID]
	if !ok {
		return nil, false
	}
	return entry.state, true
}

// GetBatch returns a snapshot of a batch by ID.
func (m *Manager) GetBatch(id string) (*models.Batch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.batches[id]
	if !ok {
		return nil, false
	}
	return entry.state.Snapshot(), true
}

// GetDocument returns a copy of one document record.
func (m *Manager) GetDocument(batchID, docID string) (models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.batches[batchID]
	if !ok {
		return models.Document{}, false
	}
	return entry.state.Document(docID)
}

// GetPreviews returns one page window of a document's rendered previews plus
// the document's total page count. An unknown batch reports ErrBatchNotFound;
// a spill store failure surfaces as its own error. A batch whose store is not
// yet open simply has no previews.
func (m *Manager) GetPreviews(batchID, docID string, offset, limit int) ([]PreviewPage, int, error) {
	m.mu.RLock()
	entry, ok := m.batches[batchID]
	if !ok {
		m.mu.RUnlock()
		return nil, 0, ErrBatchNotFound
	}
	previews := entry.previews
	m.mu.RUnlock()

	if previews == nil {
		return nil, 0, nil
	}

	pages, total, err := previews.GetPreviews(docID, offset, limit)
	if err != nil {
		slog.Error("Preview query failed", "batch", batchID[:8], "error", err)
		return nil, 0, fmt.Errorf("querying previews: %w", err)
	}
	return pages, total, nil
}

// TouchBatch updates the last-accessed timestamp for a batch.
// This should be called whenever a batch is actively being viewed
// to prevent it from being cleaned up.
func (m *Manager) TouchBatch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.batches[id]
	if !ok {
		return false
	}
	entry.lastAccessed = time.Now()
	return true
}

// evictFinishedLocked removes the oldest finished batches until a slot is
// free. Running batches are never evicted. Caller holds m.mu.
func (m *Manager) evictFinishedLocked() {
	if len(m.batches) < MaxBatches {
		return
	}

	type candidate struct {
		id   string
		last time.Time
	}
	var finished []candidate
	for id, entry := range m.batches {
		status := entry.state.Status()
		if status == models.BatchStatusComplete || status == models.BatchStatusError {
			finished = append(finished, candidate{id: id, last: entry.lastAccessed})
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].last.Before(finished[j].last)
	})

	toFree := len(m.batches) - MaxBatches + 1
	for i := 0; i < len(finished) && i < toFree; i++ {
		entry := m.batches[finished[i].id]
		if entry.previews != nil {
			entry.previews.Close()
		}
		delete(m.batches, finished[i].id)
		slog.Info("Evicted finished batch to free a slot", "batch", finished[i].id[:8])
	}
}

// CleanupOldBatches removes batches older than maxAge,
// but keeps batches that have been accessed within BatchKeepAliveWindow.
func (m *Manager) CleanupOldBatches(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-BatchKeepAliveWindow)

	for id, entry := range m.batches {
		// Only clean up finished batches
		status := entry.state.Status()
		if status != models.BatchStatusComplete && status != models.BatchStatusError {
			continue
		}

		// Don't clean up batches that are actively being viewed
		if entry.lastAccessed.After(keepAliveCutoff) {
			continue
		}

		if entry.lastAccessed.Before(cutoff) {
			if entry.previews != nil {
				entry.previews.Close()
			}
			delete(m.batches, id)
			slog.Info("Cleaned up aged batch",
				"batch", id[:8],
				"lastAccessed", time.Since(entry.lastAccessed).Round(time.Second))
		}
	}
}

// Close releases every batch's spill store. Used on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range m.batches {
		if entry.previews != nil {
			entry.previews.Close()
		}
		delete(m.batches, id)
	}
}
