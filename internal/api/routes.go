// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/doc-translator/backend/internal/config"
	"github.com/doc-translator/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	BatchMgr BatchManager
	Config   *config.AppConfig
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Upload  UploadHandler
	Process ProcessHandler
	Batch   BatchHandler
	Socket  *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Upload:  NewUploadHandler(deps.Store, deps.Config),
		Process: NewProcessHandler(deps.Store, deps.BatchMgr, deps.Config),
		Batch:   NewBatchHandler(deps.BatchMgr, deps.Config),
		Socket:  NewWebSocketHandler(deps.BatchMgr),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)
	e.GET("/api/health", handlers.Health.HandleHealth)

	// File upload routes
	uploadGroup := e.Group("/api/files")
	uploadGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	uploadGroup.POST("/upload/base64", handlers.Upload.HandleUploadBase64)
	uploadGroup.POST("/upload/chunk", handlers.Upload.HandleUploadChunk)
	uploadGroup.POST("/upload/complete", handlers.Upload.HandleCompleteUpload)
	uploadGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetFile)
	uploadGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	uploadGroup.PUT("/:id", handlers.Upload.HandleRenameFile)

	// Processing routes
	e.POST("/api/process", handlers.Process.HandleStartProcess)
	e.GET("/api/languages", handlers.Process.HandleGetLanguages)

	// Batch routes
	batchGroup := e.Group("/api/batches")
	batchGroup.GET("/:id", handlers.Batch.HandleBatchStatus)
	batchGroup.POST("/:id/keepalive", handlers.Batch.HandleBatchKeepAlive)
	batchGroup.GET("/:id/documents/:docId/previews", handlers.Batch.HandleGetPreviews)
	batchGroup.GET("/:id/documents/:docId/previews/msgpack", handlers.Batch.HandleGetPreviewsMsgpack)
	batchGroup.GET("/:id/documents/:docId/export", handlers.Batch.HandleExportDocument)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/batches/:id", handlers.Socket.HandleBatchSocket)
}

// SetupMiddleware configures the custom error handler
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
