package export

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestExportFormats(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		text     string
		wantMime string
		wantExt  string
	}{
		{"plain text", FormatText, "hello world", "text/plain", ".txt"},
		{"markdown", FormatMarkdown, "# Title\n\nbody", "text/markdown", ".md"},
		{"json", FormatJSON, "recognized text", "application/json", ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := Export(tt.text, tt.format)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			if artifact.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", artifact.MimeType, tt.wantMime)
			}
			if artifact.Ext != tt.wantExt {
				t.Errorf("Ext = %q, want %q", artifact.Ext, tt.wantExt)
			}
			if tt.format != FormatJSON && string(artifact.Data) != tt.text {
				t.Errorf("Data = %q, want %q", artifact.Data, tt.text)
			}
		})
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	// The wrapped text must survive marshal/parse exactly, including
	// characters JSON has to escape.
	text := "line one\nline two\t\"quoted\" — data:image/png;base64,AAAA"

	artifact, err := Export(text, FormatJSON)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var parsed map[string]string
	if err := json.Unmarshal(artifact.Data, &parsed); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if parsed["ocr_result"] != text {
		t.Errorf("ocr_result = %q, want %q", parsed["ocr_result"], text)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, err := Export("text", Format("pdf")); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("expected error for unknown format string")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"txt", "md", "json"} {
		format, err := ParseFormat(s)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", s, err)
		}
		if string(format) != s {
			t.Errorf("ParseFormat(%q) = %q", s, format)
		}
	}
}

func TestDataURI(t *testing.T) {
	artifact, err := Export("some text", FormatText)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	uri := artifact.DataURI()
	if !strings.HasPrefix(uri, "data:text/plain;base64,") {
		t.Fatalf("unexpected data URI prefix: %q", uri)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:text/plain;base64,"))
	if err != nil {
		t.Fatalf("data URI payload is not valid base64: %v", err)
	}
	if string(decoded) != "some text" {
		t.Errorf("decoded payload = %q", decoded)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		docName string
		label   string
		want    string
	}{
		{"report.pdf", "ocr", "report_ocr.txt"},
		{"scan.final.jpg", "translation", "scan.final_translation.txt"},
		{"noext", "ocr", "noext_ocr.txt"},
		{"", "ocr", "document_ocr.txt"},
	}

	artifact, _ := Export("x", FormatText)
	for _, tt := range tests {
		if got := FileName(tt.docName, tt.label, artifact); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.docName, tt.label, got, tt.want)
		}
	}
}
