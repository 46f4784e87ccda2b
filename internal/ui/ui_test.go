package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"engine load", &ocr.LoadError{Engine: "tesseract", Err: errors.New("boom")}, MsgEngineUnavailable},
		{"wrapped engine load", fmt.Errorf("Image extraction failed: %w", &ocr.LoadError{Engine: "tesseract", Err: errors.New("boom")}), MsgEngineUnavailable},
		{"missing binary", fmt.Errorf("run: %w", exec.ErrNotFound), MsgEngineUnavailable},
		{"refused", errors.New("API error: dial tcp 127.0.0.1:9: connect: connection refused"), MsgNetworkError},
		{"dns", errors.New("lookup api.invalid: no such host"), MsgNetworkError},
		{"network word", errors.New("Network request failed"), MsgNetworkError},
		{"passthrough", fmt.Errorf("PDF extraction failed: %w", extractor.ErrNoTextFound), "PDF extraction failed: " + extractor.ErrNoTextFound.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestFileProgress_LatestWins(t *testing.T) {
	var buf bytes.Buffer
	p := NewFileProgress(&buf, "scan.png", false)

	p.Report(extractor.MsgLoadingEngine)
	p.Report(extractor.MsgPerformingOCR)
	assert.Equal(t, extractor.MsgPerformingOCR, p.Latest())

	p.Report(extractor.OCRProgressMessage(40))
	p.Report(extractor.OCRProgressMessage(100))
	p.Report(extractor.MsgImageComplete)
	assert.Equal(t, extractor.MsgImageComplete, p.Latest())
	assert.NotNil(t, p.bar)

	assert.NotPanics(t, p.Done)
	assert.Contains(t, buf.String(), "scan.png")
}

func TestFileProgress_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewFileProgress(&buf, "notes.txt", true)
	p.Report("Reading text file...")
	p.Report(extractor.OCRProgressMessage(10))
	p.Done()

	assert.Equal(t, extractor.OCRProgressMessage(10), p.Latest())
	assert.Nil(t, p.bar)
	assert.Empty(t, buf.String())
}

func TestOutput(t *testing.T) {
	previous := !color.NoColor
	SetColor(false)
	defer SetColor(previous)

	var buf bytes.Buffer
	Success(&buf, "%d file(s) extracted", 2)
	Error(&buf, "a.png", &ocr.LoadError{Engine: "tesseract", Err: errors.New("x")})
	Warning(&buf, "skipped %s", "b.zip")
	Header(&buf, "a.txt")

	assert.Equal(t, "✓ 2 file(s) extracted\n"+
		"✗ a.png: "+MsgEngineUnavailable+"\n"+
		"⚠ skipped b.zip\n"+
		"==> a.txt <==\n", buf.String())
}
