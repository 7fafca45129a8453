// handlers_health_test.go - Tests for health check and error rendering
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHandleHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler("1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleHealth(c); err != nil {
		t.Fatalf("HandleHealth failed: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q", resp["status"])
	}
	if resp["version"] != "1.2.3" {
		t.Errorf("version = %q", resp["version"])
	}
	if resp["uptime"] == "" {
		t.Error("uptime missing")
	}
}

func TestErrorHandlerRendersAPIError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(NewConfigurationError("MISTRAL_API_KEY is not set"), c)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != "CONFIGURATION_ERROR" {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.Message != "MISTRAL_API_KEY is not set" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestErrorHandlerWrapsEchoHTTPError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(echo.NewHTTPError(http.StatusNotFound, "no such route"), c)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp APIError
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "HTTP_ERROR" {
		t.Errorf("code = %q", resp.Code)
	}
}
