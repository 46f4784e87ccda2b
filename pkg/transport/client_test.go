package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return PreparePayloadAt(FileInfo{Filename: "scan.png", MIMEType: "image/png", Bytes: 2048}, "Hello", at)
}

func TestPreparePayload(t *testing.T) {
	at := time.Date(2025, 3, 1, 13, 4, 5, 678_000_000, time.FixedZone("CET", 3600))
	p := PreparePayloadAt(FileInfo{Filename: "café.txt", MIMEType: "text/plain", Bytes: 9}, "héllo", at)

	assert.Equal(t, "café.txt", p.Filename)
	assert.Equal(t, "text/plain", p.FileType)
	assert.Equal(t, int64(9), p.FileSize)
	assert.Equal(t, "héllo", p.ExtractedContent)
	assert.Equal(t, "2025-03-01T12:04:05.678Z", p.Timestamp)
	assert.Equal(t, p.Timestamp, p.Metadata.ProcessingDate)
	assert.Equal(t, 5, p.Metadata.ContentLength)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"filename", "fileType", "fileSize", "extractedContent", "timestamp", "metadata"} {
		assert.Contains(t, fields, key)
	}
	meta := fields["metadata"].(map[string]interface{})
	assert.Contains(t, meta, "processingDate")
	assert.Contains(t, meta, "contentLength")
}

func TestPreparePayload_Now(t *testing.T) {
	p := PreparePayload(FileInfo{Filename: "a.txt"}, "")
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
	assert.Equal(t, 0, p.Metadata.ContentLength)
}

func TestClient_Disabled(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: false, Endpoint: server.URL}, nil)
	assert.False(t, client.Enabled())

	result, err := client.Send(context.Background(), testPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Disabled)
	assert.Equal(t, "API is disabled in config", result.Message)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestClient_Send(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","stored":true}`))
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: true, Endpoint: server.URL, TimeoutMS: 5000}, server.Client())
	result, err := client.Send(context.Background(), testPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Disabled)
	assert.Equal(t, "abc", result.Response["id"])
	assert.Equal(t, testPayload(), received)
}

func TestClient_EmptyResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: true, Endpoint: server.URL}, server.Client())
	result, err := client.Send(context.Background(), testPayload())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.Response)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: true, Endpoint: server.URL, RetryAttempts: 3}, server.Client())
	_, err := client.Send(context.Background(), testPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, "API error: API request failed: 502 Bad Gateway", err.Error())

	// Retry attempts are not enforced.
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(&Config{Enabled: true, Endpoint: server.URL, TimeoutMS: 50}, server.Client())
	start := time.Now()
	_, err := client.Send(context.Background(), testPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	client := NewClient(&Config{Enabled: true, Endpoint: server.URL}, server.Client())
	_, err := client.Send(context.Background(), testPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "decode response")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "/api/content/extract", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 3, cfg.RetryAttempts)
}
