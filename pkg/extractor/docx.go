package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/nguyenthenguyen/docx"
)

const stageDOCX = "DOCX"

// DOCXExtractor handles DOCX file extraction
type DOCXExtractor struct{}

// Extract implements Extractor.
func (d *DOCXExtractor) Extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	text, err := d.extract(ctx, file, onProgress)
	if err != nil {
		return "", stageError(stageDOCX, err)
	}
	return text, nil
}

func (d *DOCXExtractor) extract(ctx context.Context, file SourceFile, onProgress ProgressFunc) (string, error) {
	onProgress.report("Reading DOCX file...")
	content, err := ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	// DOCX files are ZIP files, check for ZIP signature
	if len(content) < 4 || content[0] != 0x50 || content[1] != 0x4B {
		return "", fmt.Errorf("not a valid DOCX file - missing ZIP signature")
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse DOCX: %w", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger := logging.GetExtractionLogger(KindDOCX.String(), file.Name())
			logger.Warn().Err(cerr).Msg("Error closing DOCX archive")
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	onProgress.report("Extracting document text...")
	text, err := documentText(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", noText("DOCX document")
	}

	onProgress.report("DOCX extraction complete")
	return text, nil
}

// documentText flattens WordprocessingML into plain text: runs are joined,
// paragraphs end with a newline, tabs and breaks are kept.
func documentText(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.ReplaceAll(b.String(), "\r\n", "\n"), nil
}
