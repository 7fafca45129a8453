// handlers_batch.go - Batch status, preview and export handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/doc-translator/backend/internal/config"
	"github.com/doc-translator/backend/internal/export"
	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// BatchHandlerImpl implements the BatchHandler interface
type BatchHandlerImpl struct {
	batchMgr        BatchManager
	previewPageSize int
}

// NewBatchHandler creates a new batch handler instance
func NewBatchHandler(batchMgr BatchManager, cfg *config.AppConfig) BatchHandler {
	pageSize := 10
	if cfg != nil && cfg.Processing.PreviewPageSize > 0 {
		pageSize = cfg.Processing.PreviewPageSize
	}
	return &BatchHandlerImpl{
		batchMgr:        batchMgr,
		previewPageSize: pageSize,
	}
}

// HandleBatchStatus returns the current snapshot of a batch: status, progress
// and every document's results, error strings and step flags.
func (h *BatchHandlerImpl) HandleBatchStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	batch, ok := h.batchMgr.GetBatch(id)
	if !ok {
		return NewNotFoundError("batch", id)
	}

	// Viewing status counts as activity for cleanup purposes.
	h.batchMgr.TouchBatch(id)

	return c.JSON(http.StatusOK, batch)
}

// HandleBatchKeepAlive marks a batch as actively viewed so the cleanup loop
// leaves it alone.
func (h *BatchHandlerImpl) HandleBatchKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if !h.batchMgr.TouchBatch(id) {
		return NewNotFoundError("batch", id)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// previewsResponse is one window of a document's preview gallery.
type previewsResponse struct {
	Pages  []session.PreviewPage `json:"pages" msgpack:"pages"`
	Total  int                   `json:"total" msgpack:"total"`
	Offset int                   `json:"offset" msgpack:"offset"`
	Limit  int                   `json:"limit" msgpack:"limit"`
}

// HandleGetPreviews returns a paginated window of a document's rendered page
// previews as JSON data URIs.
func (h *BatchHandlerImpl) HandleGetPreviews(c echo.Context) error {
	resp, err := h.getPreviewWindow(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGetPreviewsMsgpack is the binary wire variant of HandleGetPreviews.
// Page galleries are mostly base64 payload and msgpack framing keeps the
// transfer noticeably smaller than JSON for multi-page documents.
func (h *BatchHandlerImpl) HandleGetPreviewsMsgpack(c echo.Context) error {
	resp, err := h.getPreviewWindow(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode previews", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *BatchHandlerImpl) getPreviewWindow(c echo.Context) (*previewsResponse, error) {
	batchID := c.Param("id")
	docID := c.Param("docId")
	if batchID == "" {
		return nil, NewValidationError("id")
	}
	if docID == "" {
		return nil, NewValidationError("docId")
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, NewBadRequestError("offset must be a non-negative integer", err)
		}
		offset = n
	}

	limit := h.previewPageSize
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, NewBadRequestError("limit must be a positive integer", err)
		}
		limit = n
	}

	pages, total, err := h.batchMgr.GetPreviews(batchID, docID, offset, limit)
	if errors.Is(err, session.ErrBatchNotFound) {
		return nil, NewNotFoundError("batch", batchID)
	}
	if err != nil {
		return nil, NewInternalError("failed to load previews", err)
	}

	h.batchMgr.TouchBatch(batchID)

	return &previewsResponse{
		Pages:  pages,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}, nil
}

// HandleExportDocument serializes one document's OCR or translation result as
// a downloadable artifact. Formats: txt, md, json. With ?encoding=datauri the
// artifact is returned as a JSON envelope carrying a data URI instead of a
// byte stream.
func (h *BatchHandlerImpl) HandleExportDocument(c echo.Context) error {
	batchID := c.Param("id")
	docID := c.Param("docId")
	if batchID == "" {
		return NewValidationError("id")
	}
	if docID == "" {
		return NewValidationError("docId")
	}

	doc, ok := h.batchMgr.GetDocument(batchID, docID)
	if !ok {
		return NewNotFoundError("document", docID)
	}

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewBadRequestError(err.Error(), nil)
	}

	source := c.QueryParam("source")
	if source == "" {
		source = "ocr"
	}

	text, label, err := resultText(&doc, source)
	if err != nil {
		return err
	}

	artifact, err := export.Export(text, format)
	if err != nil {
		return NewInternalError("failed to export document", err)
	}

	fileName := export.FileName(doc.Name, label, artifact)

	if c.QueryParam("encoding") == "datauri" {
		return c.JSON(http.StatusOK, map[string]string{
			"fileName": fileName,
			"mimeType": artifact.MimeType,
			"dataUri":  artifact.DataURI(),
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, fileName))
	return c.Blob(http.StatusOK, artifact.MimeType, artifact.Data)
}

// resultText picks the export surface for a document. Stage error strings are
// exportable too: a degraded document still shows its error text wherever its
// result would appear.
func resultText(doc *models.Document, source string) (text, label string, err error) {
	switch source {
	case "ocr":
		text = doc.OCRText()
		label = "ocr"
	case "translation":
		text = doc.TranslationText()
		label = "translation"
	default:
		return "", "", NewBadRequestError("source must be \"ocr\" or \"translation\"", nil)
	}

	if text == "" {
		return "", "", NewNotFoundError(source+" result for document", doc.ID)
	}
	return text, label, nil
}
