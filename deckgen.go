// Package deckgen generates visually-consistent slide images through an
// OpenAI-compatible multi-modal endpoint. A request composes its reference
// images into a single sheet, sends prompt+sheet with bounded retry, extracts
// an image locator from the free-text reply, downloads and validates the
// result, and optionally runs a quality gate with bounded refinement.
package deckgen

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/deckgen-dev/deckgen/internal/chatapi"
	"github.com/deckgen-dev/deckgen/internal/refsheet"
)

const (
	EnvAPIKey  = "ANTHROPIC_AUTH_TOKEN"
	EnvBaseURL = "LUCKYAPI_BASE_URL"
	EnvModel   = "LUCKYAPI_MODEL"

	DefaultBaseURL = "https://luckyapi.chat/v1"
	DefaultModel   = "(按次)gemini-3-pro-image-preview"

	DefaultRetries   = 3
	DefaultMaxRefine = 2

	// DefaultReferenceMaxSize bounds normalized reference artifacts.
	DefaultReferenceMaxSize = 512
)

// Config controls a Client. Zero values resolve from the environment
// (credentials, endpoint, model) or fall back to pipeline defaults.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// Per-call-class timeouts.
	SendTimeout     time.Duration
	DownloadTimeout time.Duration
	QualityTimeout  time.Duration

	// Fixed (non-exponential) backoffs between attempts. SendBackoff follows
	// send failures and timeouts; ShortBackoff follows parse misses and
	// download failures.
	SendBackoff  time.Duration
	ShortBackoff time.Duration

	// Reference sheet layout.
	CellSize   int
	MaxColumns int
}

// Client runs the generation pipeline. It is safe for concurrent use as long
// as concurrent requests target distinct output paths.
type Client struct {
	cfg   Config
	api   *chatapi.Client
	log   *slog.Logger
	fonts refsheet.FontResolver
}

func NewClient(cfg Config) *Client {
	cfg = normalizeConfig(cfg)
	return &Client{
		cfg: cfg,
		api: &chatapi.Client{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			HTTPClient: cfg.HTTPClient,
		},
		log:   cfg.Logger,
		fonts: refsheet.SystemFonts(),
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = getenv(EnvBaseURL, DefaultBaseURL)
	}
	if cfg.Model == "" {
		cfg.Model = getenv(EnvModel, DefaultModel)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 300 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.QualityTimeout <= 0 {
		cfg.QualityTimeout = 120 * time.Second
	}
	if cfg.SendBackoff <= 0 {
		cfg.SendBackoff = 5 * time.Second
	}
	if cfg.ShortBackoff <= 0 {
		cfg.ShortBackoff = 3 * time.Second
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = refsheet.DefaultCellSize
	}
	if cfg.MaxColumns <= 0 {
		cfg.MaxColumns = refsheet.DefaultMaxColumns
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
