// handlers_upload_test.go - Tests for upload handlers
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/doc-translator/backend/internal/models"
	"github.com/doc-translator/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func multipartUpload(t *testing.T, filename, contentType string, content []byte) (*http.Request, error) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req, nil
}

func TestHandleUploadFile(t *testing.T) {
	e := echo.New()
	store := testutil.NewMockStorage()
	h := NewUploadHandler(store, nil)

	req, err := multipartUpload(t, "scan.pdf", "application/pdf", []byte("%PDF-1.4 data"))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUploadFile(c)) {
		assert.Equal(t, http.StatusCreated, rec.Code)

		var info models.FileInfo
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "scan.pdf", info.Name)
		assert.Equal(t, "application/pdf", info.MimeType)

		data, ok := store.GetContent(info.ID)
		assert.True(t, ok)
		assert.Equal(t, []byte("%PDF-1.4 data"), data)
	}
}

func TestHandleUploadFileInfersMime(t *testing.T) {
	e := echo.New()
	h := NewUploadHandler(testutil.NewMockStorage(), nil)

	// Browsers often send octet-stream; the extension decides.
	req, _ := multipartUpload(t, "photo.jpg", "application/octet-stream", []byte("jpegdata"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUploadFile(c)) {
		assert.Contains(t, rec.Body.String(), `"mimeType":"image/jpeg"`)
	}
}

func TestHandleUploadFileRejectsType(t *testing.T) {
	e := echo.New()
	h := NewUploadHandler(testutil.NewMockStorage(), nil)

	for _, filename := range []string{"malware.exe", "doc.docx", "noextension"} {
		req, _ := multipartUpload(t, filename, "", []byte("content"))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.HandleUploadFile(c)
		if assert.Error(t, err, filename) {
			apiErr := err.(*APIError)
			assert.Equal(t, http.StatusUnsupportedMediaType, apiErr.Status, filename)
		}
	}
}

func TestHandleUploadBase64(t *testing.T) {
	e := echo.New()
	store := testutil.NewMockStorage()
	h := NewUploadHandler(store, nil)

	tests := []struct {
		name    string
		request uploadFileRequest
		errCode string
	}{
		{
			name: "valid upload",
			request: uploadFileRequest{
				Name: "page.png",
				Data: base64.StdEncoding.EncodeToString([]byte("pngbytes")),
			},
		},
		{
			name:    "missing name",
			request: uploadFileRequest{Data: "QUFB"},
			errCode: "VALIDATION_ERROR",
		},
		{
			name:    "missing data",
			request: uploadFileRequest{Name: "x.png"},
			errCode: "VALIDATION_ERROR",
		},
		{
			name: "invalid base64",
			request: uploadFileRequest{
				Name: "x.png",
				Data: "!!!not-base64!!!",
			},
			errCode: "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/api/files/upload/base64", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.HandleUploadBase64(c)
			if tt.errCode != "" {
				if assert.Error(t, err) {
					assert.Equal(t, tt.errCode, err.(*APIError).Code)
				}
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusCreated, rec.Code)
			}
		})
	}
}

func TestChunkedUploadFlow(t *testing.T) {
	e := echo.New()
	store := testutil.NewMockStorage()
	h := NewUploadHandler(store, nil)

	sendJSON := func(handler echo.HandlerFunc, v interface{}) (*httptest.ResponseRecorder, error) {
		body, _ := json.Marshal(v)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		return rec, handler(e.NewContext(req, rec))
	}

	for i, chunk := range []string{"first-", "second"} {
		rec, err := sendJSON(h.HandleUploadChunk, uploadChunkRequest{
			UploadID:   "upl-1",
			ChunkIndex: i,
			Data:       base64.StdEncoding.EncodeToString([]byte(chunk)),
		})
		if assert.NoError(t, err) {
			assert.Equal(t, http.StatusAccepted, rec.Code)
		}
	}

	rec, err := sendJSON(h.HandleCompleteUpload, completeUploadRequest{
		UploadID:    "upl-1",
		Name:        "combined.pdf",
		TotalChunks: 2,
	})
	if assert.NoError(t, err) {
		assert.Equal(t, http.StatusCreated, rec.Code)

		var info models.FileInfo
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, int64(len("first-second")), info.Size)

		data, _ := store.GetContent(info.ID)
		assert.Equal(t, "first-second", string(data))
	}
}

func TestFileLifecycleHandlers(t *testing.T) {
	e := echo.New()
	store := testutil.NewMockStorage()
	h := NewUploadHandler(store, nil)

	info, _ := store.Save("a.pdf", "application/pdf", bytes.NewReader([]byte("x")))

	// Get
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	if assert.NoError(t, h.HandleGetFile(c)) {
		assert.Contains(t, rec.Body.String(), `"name":"a.pdf"`)
	}

	// Recent
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if assert.NoError(t, h.HandleGetRecentFiles(c)) {
		assert.Contains(t, rec.Body.String(), info.ID)
	}

	// Rename
	body, _ := json.Marshal(renameFileRequest{Name: "b.pdf"})
	req = httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	if assert.NoError(t, h.HandleRenameFile(c)) {
		assert.Contains(t, rec.Body.String(), `"name":"b.pdf"`)
	}

	// Rename must respect the extension allow-list too.
	body, _ = json.Marshal(renameFileRequest{Name: "b.exe"})
	req = httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	assert.Error(t, h.HandleRenameFile(c))

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(info.ID)
	if assert.NoError(t, h.HandleDeleteFile(c)) {
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	_, err := store.Get(info.ID)
	assert.Error(t, err)
}
