package extractor

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileKind is the closed classification that drives dispatch.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindImage
	KindPDF
	KindDOCX
	KindPlainText
)

func (k FileKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindPlainText:
		return "text"
	default:
		return "unsupported"
	}
}

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// knownTypes pins the MIME types of supported extensions so classification
// does not depend on the host's mime tables.
var knownTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".pdf":  mimePDF,
	".docx": mimeDOCX,
	".txt":  mimeText,
}

// Classify derives the FileKind from the declared MIME type, then the
// file extension.
func Classify(f SourceFile) FileKind {
	return ClassifyType(f.Type(), f.Name())
}

// ClassifyType is Classify on raw attributes.
func ClassifyType(mimeType, name string) FileKind {
	t := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case strings.HasPrefix(t, "image/"):
		return KindImage
	case t == mimePDF:
		return KindPDF
	case t == mimeDOCX:
		return KindDOCX
	case t == mimeText:
		return KindPlainText
	}

	if known, ok := knownTypes[strings.ToLower(filepath.Ext(name))]; ok && known != t {
		return ClassifyType(known, "")
	}
	return KindUnsupported
}

// SupportedExtensions lists the extensions the service accepts, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(knownTypes))
	for ext := range knownTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
