// Package extractor turns user files into plain text. The Service
// classifies a file and routes it to the extractor for its kind.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
)

// ProgressFunc receives human readable status messages. It may be nil.
type ProgressFunc func(msg string)

func (p ProgressFunc) report(msg string) {
	if p != nil {
		p(msg)
	}
}

// Extractor produces text for one kind of file. Implementations fail
// rather than return empty text and release every engine resource they
// acquire before returning.
type Extractor interface {
	Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	return f(ctx, file, onProgress)
}

// Extractors is the dispatch table, one field per supported FileKind.
type Extractors struct {
	Image     Extractor
	PDF       Extractor
	DOCX      Extractor
	PlainText Extractor
}

// Observer is told about every routed call.
type Observer interface {
	ObserveExtraction(kind string, elapsed time.Duration, err error)
}

// Service is the extraction entry point.
type Service struct {
	extractors Extractors
	observer   Observer
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithObserver attaches an observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		s.observer = o
	}
}

// NewService creates a dispatcher over the given extractors.
func NewService(extractors Extractors, opts ...ServiceOption) (*Service, error) {
	if extractors.Image == nil || extractors.PDF == nil || extractors.DOCX == nil || extractors.PlainText == nil {
		return nil, errors.New("extractor: every file kind needs an extractor")
	}
	s := &Service{extractors: extractors}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) route(kind FileKind) Extractor {
	switch kind {
	case KindImage:
		return s.extractors.Image
	case KindPDF:
		return s.extractors.PDF
	case KindDOCX:
		return s.extractors.DOCX
	case KindPlainText:
		return s.extractors.PlainText
	default:
		return nil
	}
}

// Extract classifies file and hands it to the matching extractor.
// Extractor errors are returned as is.
func (s *Service) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	kind := Classify(file)
	logger := logging.GetExtractionLogger(kind.String(), file.Name())

	start := time.Now()
	ex := s.route(kind)
	if ex == nil {
		err := &UnsupportedTypeError{Name: file.Name(), Type: file.Type()}
		logger.Warn().Str("mime_type", file.Type()).Msg("Unsupported file type")
		s.observe(kind, start, err)
		return "", err
	}

	logger.Debug().Int64("size", file.Size()).Msg("Dispatching extraction")
	text, err := ex.Extract(ctx, file, onProgress)
	s.observe(kind, start, err)
	if err != nil {
		return "", err
	}

	logger.Info().
		Int("text_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Text extracted")
	return text, nil
}

func (s *Service) observe(kind FileKind, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveExtraction(kind.String(), time.Since(start), err)
	}
}

// Supported lists accepted file extensions.
func (s *Service) Supported() []string {
	return SupportedExtensions()
}
