// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBase64(c echo.Context) error
	HandleUploadChunk(c echo.Context) error
	HandleCompleteUpload(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// ProcessHandler starts processing batches and exposes the language list
type ProcessHandler interface {
	HandleStartProcess(c echo.Context) error
	HandleGetLanguages(c echo.Context) error
}

// BatchHandler serves batch status, previews and exports
type BatchHandler interface {
	HandleBatchStatus(c echo.Context) error
	HandleBatchKeepAlive(c echo.Context) error
	HandleGetPreviews(c echo.Context) error
	HandleGetPreviewsMsgpack(c echo.Context) error
	HandleExportDocument(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// BatchManager defines the interface for batch management
// This allows mocking in tests
type BatchManager interface {
	StartBatch(files []session.BatchFile, kind models.DocumentKind, targetLanguage string, translate bool) (*models.Batch, error)
	GetBatch(id string) (*models.Batch, bool)
	GetDocument(batchID, docID string) (models.Document, bool)
	GetPreviews(batchID, docID string, offset, limit int) ([]session.PreviewPage, int, error)
	TouchBatch(id string) bool
}
