// Package config loads the extractor configuration from defaults, an optional
// YAML or JSON file and environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/Caia-Tech/caia-extractor/pkg/transport"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// OCR engine names accepted by ExtractionConfig.OCREngine.
const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// Config holds complete extractor configuration
type Config struct {
	Logging    *logging.LogConfig `json:"logging" yaml:"logging"`
	Extraction *ExtractionConfig  `json:"extraction" yaml:"extraction"`
	API        *transport.Config  `json:"api" yaml:"api"`
	Server     *ServerConfig      `json:"server" yaml:"server"`
	Temporal   *TemporalConfig    `json:"temporal" yaml:"temporal"`
}

// ExtractionConfig holds extraction settings
type ExtractionConfig struct {
	OCREngine         string        `json:"ocr_engine" yaml:"ocr_engine"`         // cli or gosseract
	OCRLanguage       string        `json:"ocr_language" yaml:"ocr_language"`     // tesseract language
	TesseractPath     string        `json:"tesseract_path" yaml:"tesseract_path"` // cli engine binary
	PageSegMode       int           `json:"page_seg_mode" yaml:"page_seg_mode"`
	PDFMaxPages       int           `json:"pdf_max_pages" yaml:"pdf_max_pages"`
	MaxFileSize       int64         `json:"max_file_size" yaml:"max_file_size"` // bytes
	ExtractionTimeout time.Duration `json:"extraction_timeout" yaml:"extraction_timeout"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	CORSOrigins  string        `json:"cors_origins" yaml:"cors_origins"`
}

// TemporalConfig holds the optional job backend settings
type TemporalConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Host      string `json:"host" yaml:"host"`
	Namespace string `json:"namespace" yaml:"namespace"`
	TaskQueue string `json:"task_queue" yaml:"task_queue"`
}

// DefaultConfig returns a complete default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: &logging.LogConfig{
			Level:   "info",
			Format:  "json",
			Console: true,
		},

		Extraction: &ExtractionConfig{
			OCREngine:         EngineCLI,
			OCRLanguage:       ocr.DefaultLanguage,
			TesseractPath:     "tesseract",
			PageSegMode:       3,
			PDFMaxPages:       1000,
			MaxFileSize:       50 * 1024 * 1024, // 50MB
			ExtractionTimeout: 5 * time.Minute,
		},

		API: transport.DefaultConfig(),

		Server: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			CORSOrigins:  "*",
		},

		Temporal: &TemporalConfig{
			Enabled:   false,
			Host:      "localhost:7233",
			Namespace: "default",
			TaskQueue: "caia-extractor",
		},
	}
}

// ProductionConfig returns production-ready configuration
func ProductionConfig() *Config {
	config := DefaultConfig()

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.OutputFile = "logs/caia-extractor.log"

	config.Server.CORSOrigins = ""

	return config
}

// DevelopmentConfig returns development configuration
func DevelopmentConfig() *Config {
	config := DefaultConfig()

	config.Logging.Level = "debug"
	config.Logging.Format = "pretty"
	config.Logging.Console = true

	config.Extraction.ExtractionTimeout = 0

	return config
}

// Load builds the configuration: .env, defaults, optional file, environment
// overrides, then validation. An empty path skips the file.
func Load(path string) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			err = json.Unmarshal(data, cfg)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		default:
			return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Logging == nil || c.Extraction == nil || c.API == nil || c.Server == nil || c.Temporal == nil {
		return fmt.Errorf("incomplete configuration")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Extraction.OCREngine != EngineCLI && c.Extraction.OCREngine != EngineGosseract {
		return fmt.Errorf("invalid ocr engine: %s", c.Extraction.OCREngine)
	}
	if strings.TrimSpace(c.Extraction.OCRLanguage) == "" {
		return fmt.Errorf("ocr language must not be empty")
	}
	if c.Extraction.OCREngine == EngineCLI && c.Extraction.TesseractPath == "" {
		return fmt.Errorf("tesseract path must not be empty for the cli engine")
	}
	if c.Extraction.PageSegMode < 0 || c.Extraction.PageSegMode > 13 {
		return fmt.Errorf("invalid page segmentation mode: %d", c.Extraction.PageSegMode)
	}
	if c.Extraction.PDFMaxPages < 0 || c.Extraction.MaxFileSize < 0 || c.Extraction.ExtractionTimeout < 0 {
		return fmt.Errorf("extraction limits must not be negative")
	}

	if c.API.Enabled {
		if err := validateEndpoint(c.API.Endpoint); err != nil {
			return err
		}
	}
	if c.API.TimeoutMS < 0 {
		return fmt.Errorf("invalid api timeout: %d", c.API.TimeoutMS)
	}
	if c.API.RetryAttempts < 0 {
		return fmt.Errorf("invalid api retry attempts: %d", c.API.RetryAttempts)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Temporal.Enabled && (c.Temporal.Host == "" || c.Temporal.TaskQueue == "") {
		return fmt.Errorf("temporal host and task queue required when temporal is enabled")
	}

	return nil
}

// validateEndpoint requires an absolute http(s) URL.
func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("api endpoint required when api is enabled")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid api endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api endpoint must be an absolute http(s) URL, got %q", endpoint)
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("OCR_ENGINE"); v != "" {
		cfg.Extraction.OCREngine = v
	}
	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.Extraction.OCRLanguage = v
	}
	if v := os.Getenv("TESSERACT_PATH"); v != "" {
		cfg.Extraction.TesseractPath = v
	}

	if v := os.Getenv("EXTRACT_API_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXTRACT_API_ENABLED: %w", err)
		}
		cfg.API.Enabled = enabled
	}
	if v := os.Getenv("EXTRACT_API_ENDPOINT"); v != "" {
		cfg.API.Endpoint = v
	}
	if v := os.Getenv("EXTRACT_API_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXTRACT_API_TIMEOUT_MS: %w", err)
		}
		cfg.API.TimeoutMS = ms
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = v
	}

	if v := os.Getenv("TEMPORAL_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TEMPORAL_ENABLED: %w", err)
		}
		cfg.Temporal.Enabled = enabled
	}
	if v := os.Getenv("TEMPORAL_HOST"); v != "" {
		cfg.Temporal.Host = v
	}

	return nil
}
