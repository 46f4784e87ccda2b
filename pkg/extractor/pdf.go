package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/ledongthuc/pdf"
)

const stagePDF = "PDF"

// PDFExtractor handles PDF file extraction
type PDFExtractor struct {
	MaxPages int
}

// Extract implements Extractor.
func (p *PDFExtractor) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	text, err := p.extract(ctx, file, onProgress)
	if err != nil {
		return "", stageError(stagePDF, err)
	}
	return text, nil
}

func (p *PDFExtractor) extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	logger := logging.GetExtractionLogger(KindPDF.String(), file.Name())

	onProgress.report("Reading PDF file...")
	content, err := ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	// Check if it's actually a PDF
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return "", fmt.Errorf("not a valid PDF file - content starts with: %q", string(content[:min(20, len(content))]))
	}

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	total := doc.NumPage()
	pages := total
	if p.MaxPages > 0 && pages > p.MaxPages {
		pages = p.MaxPages
	}

	var textBuilder strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		onProgress.report(fmt.Sprintf("Extracting text from page %d of %d...", i, pages))

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("Skipping unreadable page")
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return "", noText("PDF")
	}

	logger.Debug().Int("pages", total).Int("extracted_pages", pages).Msg("PDF parsed")
	onProgress.report("PDF extraction complete")
	return text, nil
}
