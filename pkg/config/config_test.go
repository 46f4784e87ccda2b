package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "LOG_FORMAT", "OCR_ENGINE", "OCR_LANGUAGE", "TESSERACT_PATH",
	"EXTRACT_API_ENABLED", "EXTRACT_API_ENDPOINT", "EXTRACT_API_TIMEOUT_MS",
	"PORT", "CORS_ORIGINS", "TEMPORAL_ENABLED", "TEMPORAL_HOST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "eng", cfg.Extraction.OCRLanguage)
	assert.Equal(t, EngineCLI, cfg.Extraction.OCREngine)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, "/api/content/extract", cfg.API.Endpoint)
	assert.Equal(t, 30000, cfg.API.TimeoutMS)
	assert.Equal(t, 3, cfg.API.RetryAttempts)
	assert.False(t, cfg.Temporal.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestProfiles(t *testing.T) {
	dev := DevelopmentConfig()
	require.NoError(t, dev.Validate())
	assert.Equal(t, "debug", dev.Logging.Level)
	assert.Equal(t, "pretty", dev.Logging.Format)

	prod := ProductionConfig()
	require.NoError(t, prod.Validate())
	assert.Equal(t, "json", prod.Logging.Format)
	assert.NotEmpty(t, prod.Logging.OutputFile)
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: warn
extraction:
  ocr_engine: gosseract
  extraction_timeout: 90s
api:
  enabled: true
  endpoint: https://example.test/ingest
  timeout_ms: 1500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format, "unset fields keep defaults")
	assert.Equal(t, EngineGosseract, cfg.Extraction.OCREngine)
	assert.Equal(t, 90*time.Second, cfg.Extraction.ExtractionTimeout)
	assert.Equal(t, "eng", cfg.Extraction.OCRLanguage)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "https://example.test/ingest", cfg.API.Endpoint)
	assert.Equal(t, 1500, cfg.API.TimeoutMS)
	assert.Equal(t, 3, cfg.API.RetryAttempts)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":9090},"temporal":{"enabled":true}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Temporal.Enabled)
	assert.Equal(t, "localhost:7233", cfg.Temporal.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OCR_LANGUAGE", "deu")
	t.Setenv("TESSERACT_PATH", "/opt/bin/tesseract")
	t.Setenv("EXTRACT_API_ENABLED", "true")
	t.Setenv("EXTRACT_API_ENDPOINT", "http://localhost:9000/in")
	t.Setenv("EXTRACT_API_TIMEOUT_MS", "250")
	t.Setenv("PORT", "7070")
	t.Setenv("CORS_ORIGINS", "https://app.test")
	t.Setenv("TEMPORAL_ENABLED", "1")
	t.Setenv("TEMPORAL_HOST", "temporal:7233")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "deu", cfg.Extraction.OCRLanguage)
	assert.Equal(t, "/opt/bin/tesseract", cfg.Extraction.TesseractPath)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "http://localhost:9000/in", cfg.API.Endpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.API.Timeout())
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://app.test", cfg.Server.CORSOrigins)
	assert.True(t, cfg.Temporal.Enabled)
	assert.Equal(t, "temporal:7233", cfg.Temporal.Host)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logging: [unclosed"), 0o644))
	ini := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o644))

	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml"), nil},
		{"malformed yaml", bad, nil},
		{"unknown extension", ini, nil},
		{"bad bool", "", map[string]string{"EXTRACT_API_ENABLED": "maybe"}},
		{"bad port", "", map[string]string{"PORT": "http"}},
		{"port out of range", "", map[string]string{"PORT": "70000"}},
		{"unknown engine", "", map[string]string{"OCR_ENGINE": "paddle"}},
		{"bad level", "", map[string]string{"LOG_LEVEL": "loud"}},
		{"api enabled with default endpoint", "", map[string]string{"EXTRACT_API_ENABLED": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Enabled = true
	cfg.API.Endpoint = ""
	assert.Error(t, cfg.Validate())

	endpoints := []struct {
		endpoint string
		valid    bool
	}{
		{"/api/content/extract", false},
		{"localhost:9000/in", false},
		{"ftp://example.test/in", false},
		{"http://", false},
		{"http://localhost:9000/in", true},
		{"https://example.test/api/content/extract", true},
	}
	for _, tt := range endpoints {
		cfg = DefaultConfig()
		cfg.API.Enabled = true
		cfg.API.Endpoint = tt.endpoint
		if tt.valid {
			assert.NoError(t, cfg.Validate(), tt.endpoint)
		} else {
			assert.Error(t, cfg.Validate(), tt.endpoint)
		}
	}

	// A disabled transport never dials, so a relative default is fine.
	assert.NoError(t, DefaultConfig().Validate())

	cfg = DefaultConfig()
	cfg.Extraction.OCRLanguage = " "
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Temporal.Enabled = true
	cfg.Temporal.TaskQueue = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server = nil
	assert.Error(t, cfg.Validate())
}
