package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Error("config file should be auto-created on first run")
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Mistral.BaseURL != "https://api.mistral.ai" {
		t.Errorf("default base URL = %q", cfg.Mistral.BaseURL)
	}
	if cfg.Processing.RenderDPI != 150 {
		t.Errorf("default render DPI = %d", cfg.Processing.RenderDPI)
	}

	// The credential must never be written to the config file.
	data, _ := os.ReadFile(path)
	if strings.Contains(strings.ToLower(string(data)), "apikey") {
		t.Error("config file must not contain an API key field")
	}
}

func TestLoadConfigReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "server:\n  port: 9999\nmistral:\n  ocrModel: custom-ocr\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Mistral.OCRModel != "custom-ocr" {
		t.Errorf("ocr model = %q", cfg.Mistral.OCRModel)
	}
	// Untouched fields keep defaults.
	if cfg.Mistral.ChatModel != "mistral-large-latest" {
		t.Errorf("chat model = %q", cfg.Mistral.ChatModel)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7001")
	t.Setenv("MISTRAL_BASE_URL", "http://localhost:9000")
	t.Setenv("MISTRAL_OCR_MODEL", "ocr-override")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Mistral.BaseURL != "http://localhost:9000" {
		t.Errorf("base URL = %q", cfg.Mistral.BaseURL)
	}
	if cfg.Mistral.OCRModel != "ocr-override" {
		t.Errorf("ocr model = %q", cfg.Mistral.OCRModel)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [not a map"), 0644)

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	for name, p := range map[string]string{
		"data":    cfg.Storage.DataDirectory,
		"uploads": cfg.Storage.UploadsDirectory,
		"temp":    cfg.Storage.TempDirectory,
	} {
		if !filepath.IsAbs(p) {
			t.Errorf("%s directory not resolved to absolute path: %q", name, p)
		}
		if !strings.HasPrefix(p, dir) {
			t.Errorf("%s directory %q not rooted at config dir %q", name, p, dir)
		}
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv("MISTRAL_API_KEY", "")
	if cfg.APIKey() != "" {
		t.Error("APIKey should be empty when env var is unset")
	}

	t.Setenv("MISTRAL_API_KEY", "sk-test")
	if cfg.APIKey() != "sk-test" {
		t.Errorf("APIKey = %q", cfg.APIKey())
	}
}

func TestGetServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = 8080
	if got := cfg.GetServerAddr(); got != "127.0.0.1:8080" {
		t.Errorf("GetServerAddr = %q", got)
	}
}
