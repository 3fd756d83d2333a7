package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/audit"
	"github.com/djmwong/document-automation/internal/document"
	"github.com/djmwong/document-automation/internal/extract"
	"github.com/djmwong/document-automation/internal/extract/vision"
	"github.com/djmwong/document-automation/internal/filler"
	"github.com/djmwong/document-automation/internal/ocr"
	"github.com/djmwong/document-automation/internal/platform/config"
	"github.com/djmwong/document-automation/internal/platform/httpserver"
	"github.com/djmwong/document-automation/internal/platform/logger"
	"github.com/djmwong/document-automation/internal/platform/metrics"
	"github.com/djmwong/document-automation/internal/server"
	"github.com/djmwong/document-automation/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	for _, dir := range []string{cfg.UploadDir, cfg.ScreenshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := newVisionProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	publisher, err := audit.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	loader := &document.Loader{PDFToPPM: cfg.PDFToPPM}
	engine := ocr.NewTesseract(cfg.OCRLanguage)

	handler := server.NewHandler(server.HandlerConfig{
		Store:       store,
		Passport:    extract.NewPassportExtractor(loader, engine, provider, log),
		G28:         extract.NewG28Extractor(loader, engine, log),
		Filler:      filler.New(cfg.ScreenshotDir, cfg.Headless, log),
		Publisher:   publisher,
		Metrics:     metrics.New(),
		Logger:      log,
		UploadDir:   cfg.UploadDir,
		TargetURL:   cfg.TargetFormURL,
		FillTimeout: cfg.FillTimeout,
	})

	srv := httpserver.New(cfg.Addr, server.NewRouter(handler, log))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(ctx context.Context, cfg config.Config, log *zap.Logger) (session.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		log.Info("using redis session store")
		return session.NewRedis(ctx, cfg.RedisURL, cfg.SessionTTL)
	case "postgres":
		log.Info("using postgres session store")
		return session.NewPostgres(ctx, cfg.PostgresURL, cfg.SessionTTL)
	default:
		log.Info("using in-memory session store", zap.Duration("ttl", cfg.SessionTTL))
		mem := session.NewMemory(cfg.SessionTTL)
		go mem.Sweep(ctx, time.Minute)
		return mem, nil
	}
}

// newVisionProvider picks the LLM provider from the configured API keys.
// OpenAI wins when both are present. A nil provider is valid: extraction
// falls back to MRZ and OCR.
func newVisionProvider(ctx context.Context, cfg config.Config, log *zap.Logger) (vision.Provider, error) {
	switch {
	case cfg.OpenAIKey != "":
		log.Info("vision provider: openai", zap.String("model", cfg.OpenAIModel))
		return vision.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
	case cfg.GeminiKey != "":
		log.Info("vision provider: gemini", zap.String("model", cfg.GeminiModel))
		return vision.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	default:
		log.Warn("no vision API key configured, relying on MRZ and OCR extraction")
		return nil, nil
	}
}
