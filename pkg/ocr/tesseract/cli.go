// Package tesseract provides OCR engines backed by Tesseract.
package tesseract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/rs/zerolog/log"
)

// CLIEngine drives an external tesseract executable. Each worker owns a
// private scratch directory and the child processes it starts.
type CLIEngine struct {
	binary      string
	version     string
	pageSegMode int
}

// CLIOption configures a CLIEngine load.
type CLIOption func(*CLIEngine)

// WithPageSegMode sets the --psm value (0-13). Out of range values keep the default.
func WithPageSegMode(mode int) CLIOption {
	return func(e *CLIEngine) {
		if mode < 0 || mode > 13 {
			return
		}
		e.pageSegMode = mode
	}
}

// LoadCLI returns an ocr.LoadFunc that resolves the tesseract binary and
// checks that it runs.
func LoadCLI(binary string, opts ...CLIOption) ocr.LoadFunc {
	return func(ctx context.Context) (ocr.Engine, error) {
		name := binary
		if name == "" {
			name = "tesseract"
		}
		path, err := exec.LookPath(name)
		if err != nil {
			return nil, &ocr.LoadError{Engine: "tesseract", Err: err}
		}

		e := &CLIEngine{binary: path, pageSegMode: 3}
		for _, opt := range opts {
			opt(e)
		}

		out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
		if err != nil {
			return nil, &ocr.LoadError{Engine: "tesseract", Err: fmt.Errorf("%s --version: %w", path, err)}
		}
		e.version = parseVersion(out)
		return e, nil
	}
}

// parseVersion reads the first line of `tesseract --version`, e.g. "tesseract 5.3.0".
func parseVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		return "unknown"
	}
	line := strings.TrimSpace(sc.Text())
	if fields := strings.Fields(line); len(fields) >= 2 && strings.EqualFold(fields[0], "tesseract") {
		return strings.TrimPrefix(fields[1], "v")
	}
	if line == "" {
		return "unknown"
	}
	return line
}

// Name implements ocr.Engine.
func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Version implements ocr.Engine.
func (e *CLIEngine) Version() string { return e.version }

// CreateWorker implements ocr.Engine.
func (e *CLIEngine) CreateWorker(ctx context.Context, logger ocr.Logger) (ocr.Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "caia-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create worker scratch dir: %w", err)
	}
	return &cliWorker{engine: e, dir: dir, logger: logger}, nil
}

type cliWorker struct {
	engine *CLIEngine
	dir    string
	logger ocr.Logger

	mu         sync.Mutex
	lang       string
	terminated bool
}

func (w *cliWorker) notify(n ocr.Notification) {
	if w.logger != nil {
		w.logger(n)
	}
}

func (w *cliWorker) alive() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return ocr.ErrWorkerTerminated
	}
	return nil
}

// LoadLanguage checks that the traineddata for lang is installed.
func (w *cliWorker) LoadLanguage(ctx context.Context, lang string) error {
	if err := w.alive(); err != nil {
		return err
	}
	out, err := exec.CommandContext(ctx, w.engine.binary, "--list-langs").CombinedOutput()
	if err != nil {
		return fmt.Errorf("list languages: %w", err)
	}
	if !hasLanguage(out, lang) {
		return fmt.Errorf("language %q is not installed", lang)
	}
	w.mu.Lock()
	w.lang = lang
	w.mu.Unlock()
	return nil
}

// hasLanguage reports whether every part of a "+"-joined language spec,
// e.g. eng+deu, appears in the --list-langs output.
func hasLanguage(out []byte, lang string) bool {
	installed := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		installed[line] = true
	}

	parts := strings.Split(lang, "+")
	for _, part := range parts {
		if part == "" || !installed[part] {
			return false
		}
	}
	return true
}

// Recognize writes the image into the scratch dir and runs tesseract on it.
func (w *cliWorker) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	if err := w.alive(); err != nil {
		return "", err
	}
	w.mu.Lock()
	lang := w.lang
	w.mu.Unlock()
	if lang == "" {
		return "", errors.New("language not loaded")
	}

	input := filepath.Join(w.dir, "input"+extensionFor(img))
	if err := os.WriteFile(input, img.Data, 0o600); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	w.notify(ocr.Notification{Status: ocr.StatusRecognizing, Progress: 0})

	args := []string{input, "stdout", "-l", lang, "--psm", fmt.Sprintf("%d", w.engine.pageSegMode)}
	cmd := exec.CommandContext(ctx, w.engine.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}

	w.notify(ocr.Notification{Status: ocr.StatusRecognizing, Progress: 1})
	return stdout.String(), nil
}

// Terminate removes the scratch directory.
func (w *cliWorker) Terminate() error {
	w.mu.Lock()
	if w.terminated {
		w.mu.Unlock()
		return ocr.ErrWorkerTerminated
	}
	w.terminated = true
	w.mu.Unlock()

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	log.Debug().Str("dir", w.dir).Msg("OCR worker terminated")
	return nil
}

func extensionFor(img ocr.Image) string {
	if ext := filepath.Ext(img.Name); ext != "" {
		return strings.ToLower(ext)
	}
	switch img.MIMEType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tif"
	case "image/webp":
		return ".webp"
	}
	return ".img"
}
