package extractor

import (
	"fmt"

	"github.com/Caia-Tech/caia-extractor/pkg/config"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr/tesseract"
)

// EngineOptions carries the optional observers wired into a new engine.
type EngineOptions struct {
	Observer     Observer
	LoadObserver ocr.LoadObserver
}

// Engine is a ready-to-use dispatcher plus the OCR loader its image
// extractor shares across calls.
type Engine struct {
	*Service
	Loader *ocr.Loader
}

// NewEngine assembles every extractor from configuration. The OCR engine is
// not loaded until the first image is extracted.
func NewEngine(cfg *config.ExtractionConfig, opts EngineOptions) (*Engine, error) {
	var load ocr.LoadFunc
	switch cfg.OCREngine {
	case config.EngineCLI:
		load = tesseract.LoadCLI(cfg.TesseractPath, tesseract.WithPageSegMode(cfg.PageSegMode))
	case config.EngineGosseract:
		load = tesseract.LoadGosseract(cfg.PageSegMode)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCREngine)
	}

	var loaderOpts []ocr.LoaderOption
	if opts.LoadObserver != nil {
		loaderOpts = append(loaderOpts, ocr.WithLoadObserver(opts.LoadObserver))
	}
	loader := ocr.NewLoader(cfg.OCREngine, load, loaderOpts...)

	var serviceOpts []ServiceOption
	if opts.Observer != nil {
		serviceOpts = append(serviceOpts, WithObserver(opts.Observer))
	}
	service, err := NewService(Extractors{
		Image:     NewImageExtractor(loader, cfg.OCRLanguage),
		PDF:       &PDFExtractor{MaxPages: cfg.PDFMaxPages},
		DOCX:      &DOCXExtractor{},
		PlainText: &TextExtractor{},
	}, serviceOpts...)
	if err != nil {
		return nil, err
	}

	return &Engine{Service: service, Loader: loader}, nil
}
