package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

var (
	// ErrUnsupportedType is matched by every UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoTextFound means an extractor ran but produced no usable text.
	ErrNoTextFound = errors.New("no text could be extracted")
)

// UnsupportedTypeError names the file type no extractor accepts.
type UnsupportedTypeError struct {
	Name string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	t := e.Type
	if t == "" {
		t = "unknown"
	}
	return fmt.Sprintf("unsupported file type %q for %s", t, e.Name)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// ExtractionError carries the stage that failed, e.g. "Image".
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func stageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &ExtractionError{Stage: stage, Err: err}
}

func noText(what string) error {
	return fmt.Errorf("%w: the %s may not contain readable text", ErrNoTextFound, what)
}

// ErrorKind is the error taxonomy presented to callers.
type ErrorKind string

const (
	ErrKindNone          ErrorKind = ""
	ErrKindEngineLoad    ErrorKind = "engine_load"
	ErrKindUnsupported   ErrorKind = "unsupported_type"
	ErrKindNoText        ErrorKind = "no_text_found"
	ErrKindEngineRuntime ErrorKind = "engine_runtime"
	ErrKindCancelled     ErrorKind = "cancelled"
	ErrKindInternal      ErrorKind = "internal"
)

// ClassifyError maps err onto the taxonomy.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrKindNone
	case errors.Is(err, ErrUnsupportedType):
		return ErrKindUnsupported
	case errors.Is(err, ocr.ErrEngineLoad):
		return ErrKindEngineLoad
	case errors.Is(err, ErrNoTextFound):
		return ErrKindNoText
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCancelled
	case errors.Is(err, ocr.ErrEngineRuntime):
		return ErrKindEngineRuntime
	default:
		return ErrKindInternal
	}
}
