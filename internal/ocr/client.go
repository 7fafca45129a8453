// Package ocr calls the hosted Mistral OCR service and normalizes its output
// into a single Markdown string per document.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/doc-translator/backend/internal/models"
)

// Config holds the OCR client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the hosted OCR capability.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates an OCR client. The default HTTP client carries no
// timeout: OCR on large documents legitimately takes minutes and the caller
// accepts the wait.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Process runs OCR on the document and returns the concatenated Markdown of
// all pages, image placeholders rewritten to embeddable data URIs. A zero
// page response yields the NoResultSentinel with no error.
func (c *Client) Process(ctx context.Context, doc models.DocumentDescriptor) (string, error) {
	payload, err := json.Marshal(Request{
		Model:              c.model,
		Document:           doc,
		IncludeImageBase64: true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ocr response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, errorMessage(data))
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding ocr response: %w", err)
	}

	return AssembleMarkdown(&parsed), nil
}

// errorMessage extracts a readable message from an error reply body, falling
// back to the raw body.
func errorMessage(data []byte) string {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Message != "" {
		return er.Message
	}

	body := string(data)
	if len(body) > 200 {
		body = body[:200]
	}
	return body
}
