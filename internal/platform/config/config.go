package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs from the environment. Values
// are read once at startup so main stays lean.
type Config struct {
	Addr string

	// Vision provider selection. OpenAI wins when both keys are set.
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string

	// Session store backend: "memory" (default), "redis" or "postgres".
	StoreBackend string
	RedisURL     string
	PostgresURL  string
	SessionTTL   time.Duration

	// Optional Kafka audit stream. Empty means disabled.
	KafkaBrokers []string
	KafkaTopic   string

	UploadDir     string
	ScreenshotDir string

	// Form filler defaults.
	TargetFormURL string
	Headless      bool
	FillTimeout   time.Duration

	OCRLanguage string
	PDFToPPM    string

	LogJSON  bool
	LogDebug bool
}

const defaultTargetFormURL = "https://mendrika-alma.github.io/form-submission/"

// FromEnv builds a Config from environment variables, loading a local .env
// file first when one exists.
func FromEnv() (Config, error) {
	// Missing .env is fine; explicit environment always wins because
	// godotenv does not override existing variables.
	_ = godotenv.Load()

	cfg := Config{
		Addr:          envOr("DOCAUTO_ADDR", ":8000"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		StoreBackend:  envOr("DOCAUTO_STORE", "memory"),
		RedisURL:      os.Getenv("DOCAUTO_REDIS_URL"),
		PostgresURL:   os.Getenv("DOCAUTO_POSTGRES_URL"),
		KafkaTopic:    envOr("DOCAUTO_KAFKA_TOPIC", "docauto.audit"),
		UploadDir:     envOr("DOCAUTO_UPLOAD_DIR", "uploads"),
		ScreenshotDir: envOr("DOCAUTO_SCREENSHOT_DIR", "screenshots"),
		TargetFormURL: envOr("DOCAUTO_TARGET_FORM_URL", defaultTargetFormURL),
		OCRLanguage:   envOr("DOCAUTO_OCR_LANG", "eng"),
		PDFToPPM:      envOr("DOCAUTO_PDFTOPPM", "pdftoppm"),
		LogJSON:       os.Getenv("DOCAUTO_LOG_JSON") == "true",
		LogDebug:      os.Getenv("DOCAUTO_LOG_DEBUG") == "true",
	}

	if brokers := os.Getenv("DOCAUTO_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.SessionTTL, err = durationOr("DOCAUTO_SESSION_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.FillTimeout, err = durationOr("DOCAUTO_FILL_TIMEOUT", 2*time.Minute); err != nil {
		return Config{}, err
	}

	// Headless defaults to true; the interactive browser the desktop tool
	// kept open for manual review has no place on a server.
	cfg.Headless = true
	if v := os.Getenv("DOCAUTO_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse DOCAUTO_HEADLESS: %w", err)
		}
		cfg.Headless = headless
	}

	switch cfg.StoreBackend {
	case "memory", "redis", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown DOCAUTO_STORE backend %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "redis" && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("DOCAUTO_STORE=redis requires DOCAUTO_REDIS_URL")
	}
	if cfg.StoreBackend == "postgres" && cfg.PostgresURL == "" {
		return Config{}, fmt.Errorf("DOCAUTO_STORE=postgres requires DOCAUTO_POSTGRES_URL")
	}

	return cfg, nil
}

// VisionConfigured reports whether any LLM vision provider can be used.
func (c Config) VisionConfigured() bool {
	return c.OpenAIKey != "" || c.GeminiKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
