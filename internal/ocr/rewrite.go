package ocr

import (
	"fmt"
	"strings"
)

// NoResultSentinel is returned when the service reports zero pages. Callers
// must treat it as a valid terminal result, not as empty input to retry.
const NoResultSentinel = "No result found."

// AssembleMarkdown joins all pages' Markdown with blank lines, rewriting each
// page's image placeholders to data URIs first.
func AssembleMarkdown(resp *Response) string {
	if len(resp.Pages) == 0 {
		return NoResultSentinel
	}

	parts := make([]string, 0, len(resp.Pages))
	for _, page := range resp.Pages {
		parts = append(parts, rewritePage(page))
	}
	return strings.Join(parts, "\n\n")
}

// rewritePage replaces, for each image in returned order, the first remaining
// occurrence of its placeholder with the embeddable reference. An image whose
// placeholder is absent from the text is skipped rather than treated as an
// error, so a malformed reply never poisons the whole page.
func rewritePage(page Page) string {
	markdown := page.Markdown
	for _, img := range page.Images {
		if img.ID == "" || img.ImageBase64 == "" {
			continue
		}
		placeholder := fmt.Sprintf("![%s](%s)", img.ID, img.ID)
		replacement := fmt.Sprintf("![%s](%s)", img.ID, img.DataURI())
		markdown = strings.Replace(markdown, placeholder, replacement, 1)
	}
	return markdown
}

// DataURI returns the embeddable form of the image. Replies usually carry a
// full data URI in image_base64 already; bare base64 payloads get a MIME
// prefix derived from the placeholder extension.
func (i Image) DataURI() string {
	if strings.HasPrefix(i.ImageBase64, "data:") {
		return i.ImageBase64
	}
	return fmt.Sprintf("data:image/%s;base64,%s", i.mimeExt(), i.ImageBase64)
}

func (i Image) mimeExt() string {
	ext := "png"
	if idx := strings.LastIndex(i.ID, "."); idx >= 0 && idx+1 < len(i.ID) {
		ext = i.ID[idx+1:]
	}
	if ext == "jpg" {
		ext = "jpeg"
	}
	return ext
}
