package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/doc-translator/backend/internal/api"
	"github.com/doc-translator/backend/internal/config"
	"github.com/doc-translator/backend/internal/ingest"
	"github.com/doc-translator/backend/internal/ocr"
	"github.com/doc-translator/backend/internal/pdf"
	"github.com/doc-translator/backend/internal/session"
	"github.com/doc-translator/backend/internal/storage"
	"github.com/doc-translator/backend/internal/translate"
	"github.com/doc-translator/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Resolve config next to the executable so the tool works as a portable
	// single binary.
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	configPath := filepath.Join(exeDir, "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Advanced.LogLevel)

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// The API key is checked per processing request, not here: a server that
	// starts without it still serves the UI, where the missing-credential
	// error is actually visible to the user.
	if cfg.APIKey() == "" {
		slog.Warn("MISTRAL_API_KEY is not set; document processing will be refused until it is provided")
	}

	embeddedMode := web.HasEmbeddedFiles()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Wire the processing pipeline: ingest -> OCR -> translate.
	pipeline := session.Pipeline{
		Ingester: ingest.NewAdapter(pdf.NewFitzEngine(), cfg.Processing.RenderDPI),
		Recognizer: ocr.NewClient(ocr.Config{
			BaseURL: cfg.Mistral.BaseURL,
			APIKey:  cfg.APIKey(),
			Model:   cfg.Mistral.OCRModel,
		}),
		Translator: translate.NewTranslator(translate.Config{
			BaseURL: cfg.Mistral.BaseURL,
			APIKey:  cfg.APIKey(),
			Model:   cfg.Mistral.ChatModel,
		}),
	}

	batchMgr := session.NewManagerWithTempDir(pipeline, cfg.Storage.TempDirectory)
	batchMgr.SetStoreOptions(session.PreviewStoreOptions{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	})
	defer batchMgr.Close()

	// Background reaper for finished batches and their preview spill files.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			batchMgr.CleanupOldBatches(time.Duration(cfg.Processing.BatchTimeoutMinutes) * time.Minute)
		}
	}()

	handlers := api.NewHandlers(&api.Dependencies{
		Store:    fileStore,
		BatchMgr: batchMgr,
		Config:   cfg,
		Version:  Version,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			// Status polling and health checks are too chatty to log.
			return path == "/api/health" || path == "/health" ||
				strings.HasPrefix(path, "/api/batches/") && c.Request().Method == http.MethodGet
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// The WebSocket upgrade manages its own framing.
			return strings.HasPrefix(c.Request().URL.Path, "/api/ws/")
		},
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			slog.Warn("Failed to register static routes", "error", err)
		} else {
			slog.Info("Serving embedded frontend from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	slog.Info("Document translator server starting",
		"version", Version,
		"buildTime", BuildTime,
		"addr", cfg.GetServerAddr(),
		"dataDir", cfg.GetDataDir(),
		"embeddedFrontend", embeddedMode,
	)

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}

// setupLogging configures the process-wide slog default.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
