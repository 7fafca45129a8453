// mock_batchmanager.go - Mock batch manager for handler tests
package testutil

import (
	"fmt"
	"sync"

	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/session"
)

// MockBatchManager implements api.BatchManager with canned state.
type MockBatchManager struct {
	mu       sync.Mutex
	batches  map[string]*models.Batch
	previews map[string][]session.PreviewPage // docID -> pages
	touched  map[string]int
	nextID   int

	// StartErr, when set, makes StartBatch fail with this error.
	StartErr error
	// PreviewErr, when set, makes GetPreviews fail with this error.
	PreviewErr error
	// Started records the arguments of every StartBatch call.
	Started []session.BatchFile
}

// NewMockBatchManager creates an empty mock manager
func NewMockBatchManager() *MockBatchManager {
	return &MockBatchManager{
		batches:  make(map[string]*models.Batch),
		previews: make(map[string][]session.PreviewPage),
		touched:  make(map[string]int),
	}
}

// AddBatch seeds a batch snapshot.
func (m *MockBatchManager) AddBatch(batch *models.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[batch.ID] = batch
}

// AddPreviews seeds preview pages for a document.
func (m *MockBatchManager) AddPreviews(docID string, pages []session.PreviewPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews[docID] = pages
}

// TouchCount returns how many times a batch was touched.
func (m *MockBatchManager) TouchCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched[id]
}

func (m *MockBatchManager) StartBatch(files []session.BatchFile, kind models.DocumentKind, targetLanguage string, translate bool) (*models.Batch, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Started = append(m.Started, files...)
	m.nextID++
	batch := models.NewBatch(fmt.Sprintf("mock-batch-%d", m.nextID), kind, targetLanguage, translate)
	m.batches[batch.ID] = batch
	return batch, nil
}

func (m *MockBatchManager) GetBatch(id string) (*models.Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, ok := m.batches[id]
	return batch, ok
}

func (m *MockBatchManager) GetDocument(batchID, docID string) (models.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, ok := m.batches[batchID]
	if !ok {
		return models.Document{}, false
	}
	for _, doc := range batch.Documents {
		if doc.ID == docID {
			return *doc, true
		}
	}
	return models.Document{}, false
}

func (m *MockBatchManager) GetPreviews(batchID, docID string, offset, limit int) ([]session.PreviewPage, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[batchID]; !ok {
		return nil, 0, session.ErrBatchNotFound
	}
	if m.PreviewErr != nil {
		return nil, 0, m.PreviewErr
	}

	pages := m.previews[docID]
	total := len(pages)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return pages[offset:end], total, nil
}

func (m *MockBatchManager) TouchBatch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[id]; !ok {
		return false
	}
	m.touched[id]++
	return true
}
