package ui

import (
	"errors"
	"strings"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

// User-facing rewrites of infrastructure failures.
const (
	MsgEngineUnavailable = "Failed to load OCR engine. Please check that Tesseract is installed and try again."
	MsgNetworkError      = "Network error. Please check your internet connection."
)

var networkHints = []string{
	"connection refused",
	"no such host",
	"network is unreachable",
	"connection reset",
	"i/o timeout",
	"Network",
}

// UserMessage converts an error into the text shown to a person. Engine load
// failures and network failures are reworded; anything else is shown as is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	if errors.Is(err, ocr.ErrEngineLoad) || strings.Contains(msg, "executable file not found") {
		return MsgEngineUnavailable
	}
	for _, hint := range networkHints {
		if strings.Contains(msg, hint) {
			return MsgNetworkError
		}
	}
	return msg
}
