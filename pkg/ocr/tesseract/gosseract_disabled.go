//go:build !ocr

package tesseract

import (
	"context"
	"errors"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

// GosseractCompiled reports whether libtesseract bindings are built in.
const GosseractCompiled = false

var errGosseractNotCompiled = errors.New("gosseract engine requires building with -tags ocr and libtesseract installed (apt install libtesseract-dev, brew install tesseract)")

// LoadGosseract returns a load function that always fails in builds without the ocr tag.
func LoadGosseract(pageSegMode int) ocr.LoadFunc {
	return func(ctx context.Context) (ocr.Engine, error) {
		return nil, &ocr.LoadError{Engine: "gosseract", Err: errGosseractNotCompiled}
	}
}
