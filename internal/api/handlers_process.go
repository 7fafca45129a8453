// handlers_process.go - Document processing handlers
package api

import (
	"net/http"

	"github.com/doc-translator/backend/internal/config"
	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/session"
	"github.com/doc-translator/backend/internal/storage"
	"github.com/doc-translator/backend/internal/translate"
	"github.com/labstack/echo/v4"
)

// ProcessHandlerImpl implements the ProcessHandler interface
type ProcessHandlerImpl struct {
	store    storage.Store
	batchMgr BatchManager
	cfg      *config.AppConfig
}

// NewProcessHandler creates a new process handler instance
func NewProcessHandler(store storage.Store, batchMgr BatchManager, cfg *config.AppConfig) ProcessHandler {
	return &ProcessHandlerImpl{
		store:    store,
		batchMgr: batchMgr,
		cfg:      cfg,
	}
}

// HandleStartProcess starts a processing batch over a set of uploaded files.
// Returns 202 with the initial batch snapshot; progress is available via the
// batch status endpoint and the progress socket.
func (h *ProcessHandlerImpl) HandleStartProcess(c echo.Context) error {
	var req startProcessRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	// The missing-credential check blocks the whole run before any document
	// is touched.
	if h.cfg.APIKey() == "" {
		return NewConfigurationError("MISTRAL_API_KEY is not set")
	}

	// Resolve every file up front; one unknown ID fails the whole request
	// rather than producing a partial batch.
	files := make([]session.BatchFile, 0, len(req.FileIDs))
	for _, fid := range req.FileIDs {
		info, err := h.store.Get(fid)
		if err != nil {
			return NewNotFoundError("file", fid)
		}

		path, err := h.store.GetFilePath(fid)
		if err != nil {
			return NewInternalError("failed to resolve file path", err)
		}

		files = append(files, session.BatchFile{
			ID:       info.ID,
			Name:     info.Name,
			Path:     path,
			MimeType: info.MimeType,
		})
	}

	batch, err := h.batchMgr.StartBatch(files, req.kind(), req.TargetLanguage, req.Translate)
	if err != nil {
		return NewInternalError("failed to start batch", err)
	}

	return c.JSON(http.StatusAccepted, batch)
}

// HandleGetLanguages returns the fixed list of supported target languages
func (h *ProcessHandlerImpl) HandleGetLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"languages": translate.SupportedLanguages(),
	})
}

// Request types

type startProcessRequest struct {
	FileIDs        []string `json:"fileIds"`
	DocumentType   string   `json:"documentType"` // "pdf" or "image"
	TargetLanguage string   `json:"targetLanguage"`
	Translate      bool     `json:"translate"`
}

func (r *startProcessRequest) validate() error {
	if len(r.FileIDs) == 0 {
		return NewBadRequestError("Please upload files first", nil)
	}

	switch models.DocumentKind(r.DocumentType) {
	case models.DocumentKindPDF, models.DocumentKindImage:
	default:
		return NewValidationError("documentType")
	}

	if r.Translate {
		if r.TargetLanguage == "" {
			return NewValidationError("targetLanguage")
		}
		if !translate.IsSupported(r.TargetLanguage) {
			return NewBadRequestError("unsupported target language: "+r.TargetLanguage, nil)
		}
	}

	return nil
}

func (r *startProcessRequest) kind() models.DocumentKind {
	return models.DocumentKind(r.DocumentType)
}
