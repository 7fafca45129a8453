// Package export serializes result strings into downloadable artifacts.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Format identifies an export file format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Artifact is a downloadable rendition of one result string.
type Artifact struct {
	Data     []byte
	MimeType string
	Ext      string
}

// ParseFormat validates a format string from a request.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatMarkdown, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Export serializes text into the requested format. JSON wraps the text as
// {"ocr_result": <text>}; parsing it back yields the original string exactly.
func Export(text string, format Format) (*Artifact, error) {
	switch format {
	case FormatText:
		return &Artifact{Data: []byte(text), MimeType: "text/plain", Ext: ".txt"}, nil
	case FormatMarkdown:
		return &Artifact{Data: []byte(text), MimeType: "text/markdown", Ext: ".md"}, nil
	case FormatJSON:
		payload, err := json.Marshal(map[string]string{"ocr_result": text})
		if err != nil {
			return nil, fmt.Errorf("encoding json export: %w", err)
		}
		return &Artifact{Data: payload, MimeType: "application/json", Ext: ".json"}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// DataURI returns the artifact as a data URI suitable for a download link.
func (a *Artifact) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, base64.StdEncoding.EncodeToString(a.Data))
}

// FileName derives the download filename from the source document name, a
// result label ("ocr" or "translation") and the artifact extension.
func FileName(docName, label string, a *Artifact) string {
	base := docName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s_%s%s", base, label, a.Ext)
}
