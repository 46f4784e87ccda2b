package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/rs/zerolog"
)

// Config controls the outbound API call.
type Config struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// TimeoutMS aborts the request after this many milliseconds.
	TimeoutMS int `json:"timeout_ms" yaml:"timeout_ms"`
	// RetryAttempts is accepted for compatibility but not enforced: every
	// send is a single attempt.
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts"`
}

// DefaultConfig returns the transport defaults: disabled.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       false,
		Endpoint:      "/api/content/extract",
		TimeoutMS:     30000,
		RetryAttempts: 3,
	}
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ErrTransport is matched by every TransportError.
var ErrTransport = errors.New("api transport failed")

// TransportError is a failed outbound call.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API error: %v", e.Err)
	}
	return fmt.Sprintf("API error: API request failed: %s", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Result is the remote response, or the disabled sentinel.
type Result struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	Disabled bool                   `json:"disabled,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// Client posts payloads to the configured endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(config *Config, httpClient *http.Client) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		config:     *config,
		httpClient: httpClient,
		logger:     logging.GetLogger("transport"),
	}
	if config.RetryAttempts > 0 {
		c.logger.Warn().
			Int("retry_attempts", config.RetryAttempts).
			Msg("retry_attempts is configured but not enforced; payloads are sent once")
	}
	return c
}

// Enabled reports whether Send performs network I/O.
func (c *Client) Enabled() bool { return c.config.Enabled }

// Send posts the payload once. When the transport is disabled it returns a
// success sentinel without touching the network.
func (c *Client) Send(ctx context.Context, payload Payload) (*Result, error) {
	if !c.config.Enabled {
		c.logger.Info().
			Str("endpoint", c.config.Endpoint).
			Str("filename", payload.Filename).
			Msg("API is disabled. Data would be sent to endpoint")
		return &Result{Success: true, Disabled: true, Message: "API is disabled in config"}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	if timeout := c.config.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.config.Endpoint).Msg("API request failed")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("endpoint", c.config.Endpoint).
			Msg("API request rejected")
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	result := &Result{Success: true}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result.Response); err != nil {
			return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	c.logger.Info().
		Str("endpoint", c.config.Endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Payload sent")
	return result, nil
}
