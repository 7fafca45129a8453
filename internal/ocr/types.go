package ocr

import "github.com/doc-translator/backend/internal/models"

// Request is the body for POST /v1/ocr.
type Request struct {
	Model              string                    `json:"model"`
	Document           models.DocumentDescriptor `json:"document"`
	IncludeImageBase64 bool                      `json:"include_image_base64"`
}

// Response is the OCR service reply: ordered pages of Markdown plus the
// inline images extracted from them.
type Response struct {
	Pages     []Page `json:"pages"`
	Model     string `json:"model,omitempty"`
	UsageInfo struct {
		PagesProcessed int  `json:"pages_processed"`
		DocSizeBytes   *int `json:"doc_size_bytes"`
	} `json:"usage_info"`
}

// Page is a single page in the OCR response.
type Page struct {
	Index      int     `json:"index"`
	Markdown   string  `json:"markdown"`
	Images     []Image `json:"images"`
	Dimensions struct {
		DPI    int `json:"dpi"`
		Height int `json:"height"`
		Width  int `json:"width"`
	} `json:"dimensions"`
}

// Image is an inline image extracted from a page. The ID doubles as the
// placeholder token inside the page Markdown.
type Image struct {
	ID           string `json:"id"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
	ImageBase64  string `json:"image_base64"`
}

// errorResponse is the error envelope the service returns on non-2xx replies.
type errorResponse struct {
	Message string `json:"message"`
	Detail  any    `json:"detail"`
	Type    string `json:"type"`
}
