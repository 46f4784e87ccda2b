package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

const stageImage = "Image"

// ImageExtractor runs OCR on image files. The engine comes from a shared
// loader; each call gets its own worker.
type ImageExtractor struct {
	loader   *ocr.Loader
	language string
}

// NewImageExtractor creates an image extractor. An empty language means
// ocr.DefaultLanguage.
func NewImageExtractor(loader *ocr.Loader, language string) *ImageExtractor {
	if language == "" {
		language = ocr.DefaultLanguage
	}
	return &ImageExtractor{loader: loader, language: language}
}

// Extract implements Extractor.
func (x *ImageExtractor) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	text, err := x.extract(ctx, file, onProgress)
	if err != nil {
		return "", stageError(stageImage, err)
	}
	return text, nil
}

func (x *ImageExtractor) extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (text string, err error) {
	logger := logging.GetExtractionLogger(KindImage.String(), file.Name())
	report := func(msg string) {
		logger.Debug().Str("progress", msg).Msg("Extraction progress")
		onProgress.report(msg)
	}

	report(MsgLoadingEngine)
	engine, err := x.loader.Ensure(ctx)
	if err != nil {
		return "", err
	}

	report(MsgReadingImage)
	data, err := ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	img := ocr.Image{Name: file.Name(), MIMEType: file.Type(), Data: data}

	report(MsgInitWorker)
	worker, err := engine.CreateWorker(ctx, ocrProgressLogger(report))
	if err != nil {
		return "", ocr.NewRuntimeError(ocr.OpCreateWorker, err)
	}

	terminated := false
	defer func() {
		if terminated {
			return
		}
		if terr := worker.Terminate(); terr != nil {
			logger.Warn().Err(terr).Msg("Error terminating OCR worker")
		}
	}()

	report(MsgLoadingLanguage)
	if err := worker.LoadLanguage(ctx, x.language); err != nil {
		return "", ocr.NewRuntimeError(ocr.OpLoadLanguage, err)
	}

	report(MsgPerformingOCR)
	raw, err := worker.Recognize(ctx, img)
	if err != nil {
		return "", ocr.NewRuntimeError(ocr.OpRecognize, err)
	}

	report(MsgCleaningUp)
	terminated = true
	if err := worker.Terminate(); err != nil {
		return "", ocr.NewRuntimeError(ocr.OpTerminate, err)
	}

	if strings.TrimSpace(raw) == "" {
		return "", noText("image")
	}

	report(MsgImageComplete)
	return raw, nil
}
