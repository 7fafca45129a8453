// Package translate renders OCR Markdown into a target language through the
// Mistral chat completions endpoint (OpenAI-compatible).
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// --- Translation Prompts ---
const SystemPrompt = "You are a professional document translator. Your task is to translate Markdown documents while preserving their structure exactly. Keep all Markdown formatting, headings, tables, lists and inline image references untouched; translate only the natural-language text."

const userPromptTemplate = `Translate the following document to %s.

Preserve all Markdown formatting and image references exactly as they appear in the source. Return ONLY the translated document, with no preamble and no surrounding backtick fences.

%s`

// Config holds translator settings. BaseURL is the service root; the
// OpenAI-compatible path prefix is appended here.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Translator calls the hosted translation capability. The whole source text
// travels in one prompt: no chunking, no truncation, no retry.
type Translator struct {
	client openai.Client
	model  string
}

// NewTranslator creates a Translator against the configured endpoint.
func NewTranslator(cfg Config) *Translator {
	base := strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"
	// Failures surface to the caller as the document's error string; the
	// client default of retrying twice would hide that.
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	)

	return &Translator{
		client: client,
		model:  cfg.Model,
	}
}

// Translate produces a target-language rendition of the text.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	completion, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, targetLanguage, text)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("translation service returned no choices")
	}

	return stripFences(completion.Choices[0].Message.Content), nil
}

// stripFences removes a surrounding markdown fence the model sometimes adds
// despite instructions.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```markdown")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
