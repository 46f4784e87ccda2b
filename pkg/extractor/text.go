package extractor

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const stageText = "Text"

// TextExtractor handles plain text files. Content is read as UTF-8 unless
// a UTF-16 byte order mark says otherwise.
type TextExtractor struct{}

// Extract implements Extractor.
func (t *TextExtractor) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	onProgress.report("Reading text file...")
	content, err := ReadAll(file)
	if err != nil {
		return "", stageError(stageText, fmt.Errorf("read text: %w", err))
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, content)
	if err != nil {
		return "", stageError(stageText, fmt.Errorf("decode text: %w", err))
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", stageError(stageText, noText("text file"))
	}

	onProgress.report("Text extraction complete")
	return text, nil
}
