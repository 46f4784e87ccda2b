// Package ocr defines the OCR engine contracts used by the image extractor and
// the loader that brings an engine up once per process.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// DefaultLanguage is the only language the extraction pipeline loads.
const DefaultLanguage = "eng"

// StatusRecognizing is the engine phase reported while text recognition runs.
const StatusRecognizing = "recognizing text"

// Notification is an engine-native progress report.
type Notification struct {
	Status   string  // engine phase, e.g. "recognizing text"
	Progress float64 // fraction in [0, 1]
}

// Logger receives engine notifications for a single worker.
type Logger func(Notification)

// Image is the representation handed to a worker for recognition.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Engine is a loaded OCR runtime. It is shared read-only by every
// extraction call once loaded.
type Engine interface {
	// Name identifies the engine implementation.
	Name() string
	// Version reports the runtime version discovered while loading.
	Version() string
	// CreateWorker creates a worker exclusively owned by the caller.
	CreateWorker(ctx context.Context, logger Logger) (Worker, error)
}

// Worker is a per-call engine resource. It must be terminated on every exit
// path and must not be used afterwards.
type Worker interface {
	// LoadLanguage loads and initializes the language model.
	LoadLanguage(ctx context.Context, lang string) error
	// Recognize runs OCR against the image and returns the raw text.
	Recognize(ctx context.Context, img Image) (string, error)
	// Terminate releases the worker. A second call returns ErrWorkerTerminated.
	Terminate() error
}

var (
	// ErrEngineLoad marks failures to fetch or initialize an engine.
	ErrEngineLoad = errors.New("ocr engine load failed")
	// ErrEngineRuntime marks failures raised by the engine during a staged call.
	ErrEngineRuntime = errors.New("ocr engine runtime failure")
	// ErrWorkerTerminated is returned by any call on a terminated worker.
	ErrWorkerTerminated = errors.New("ocr worker already terminated")
)

// LoadError wraps a failed engine load.
type LoadError struct {
	Engine string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s engine: %v", e.Engine, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports ErrEngineLoad so callers can match the kind without the type.
func (e *LoadError) Is(target error) bool { return target == ErrEngineLoad }

// Op names for RuntimeError.
const (
	OpCreateWorker = "create worker"
	OpLoadLanguage = "load language"
	OpRecognize    = "recognize"
	OpTerminate    = "terminate"
)

// RuntimeError wraps a failure surfaced by the engine during a staged call.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Is(target error) bool { return target == ErrEngineRuntime }

// NewRuntimeError wraps err unless it already is a RuntimeError.
func NewRuntimeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Op: op, Err: err}
}
