package extractor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

// Image extraction progress messages, in emission order.
const (
	MsgLoadingEngine    = "Loading OCR engine..."
	MsgReadingImage     = "Reading image file..."
	MsgInitWorker       = "Initializing Tesseract worker..."
	MsgLoadingLanguage  = "Loading language data..."
	MsgPerformingOCR    = "Performing OCR on image..."
	MsgCleaningUp       = "Cleaning up..."
	MsgImageComplete    = "Image extraction complete"
	ocrProgressTemplate = "OCR Progress: %d%%"
)

// OCRProgressMessage formats a recognition percentage.
func OCRProgressMessage(percent int) string {
	return fmt.Sprintf(ocrProgressTemplate, percent)
}

// ParseOCRProgress reports the percentage carried by an OCR progress message.
func ParseOCRProgress(msg string) (int, bool) {
	rest, ok := strings.CutPrefix(msg, "OCR Progress: ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, "%"))
	if err != nil || !strings.HasSuffix(rest, "%") {
		return 0, false
	}
	return n, true
}

// ocrProgressLogger translates engine notifications into progress messages:
// the recognition phase becomes a rounded percentage, any other phase is
// passed through by name.
func ocrProgressLogger(onProgress ProgressFunc) ocr.Logger {
	return func(n ocr.Notification) {
		switch {
		case n.Status == ocr.StatusRecognizing:
			onProgress.report(OCRProgressMessage(percent(n.Progress)))
		case n.Status != "":
			onProgress.report(n.Status)
		}
	}
}

func percent(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	p := int(math.Round(fraction * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
