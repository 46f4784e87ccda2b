package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		mimeType string
		name     string
		want     FileKind
	}{
		{"image/png", "a.png", KindImage},
		{"image/jpeg", "", KindImage},
		{"IMAGE/TIFF", "scan", KindImage},
		{"", "photo.JPG", KindImage},
		{"application/pdf", "", KindPDF},
		{"", "report.pdf", KindPDF},
		{"application/octet-stream", "report.pdf", KindPDF},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", KindDOCX},
		{"application/zip", "letter.docx", KindDOCX},
		{"text/plain; charset=utf-8", "", KindPlainText},
		{"", "notes.txt", KindPlainText},
		{"text/html", "index.html", KindUnsupported},
		{"application/msword", "old.doc", KindUnsupported},
		{"", "", KindUnsupported},
		{"application/zip", "bundle.zip", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType+"|"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.mimeType, tt.name))
		})
	}
}

func TestFileKindString(t *testing.T) {
	assert.Equal(t, "image", KindImage.String())
	assert.Equal(t, "pdf", KindPDF.String())
	assert.Equal(t, "docx", KindDOCX.String())
	assert.Equal(t, "text", KindPlainText.String())
	assert.Equal(t, "unsupported", KindUnsupported.String())
	assert.Equal(t, "unsupported", FileKind(99).String())
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".png")
	assert.Contains(t, exts, ".pdf")
	assert.Contains(t, exts, ".docx")
	assert.Contains(t, exts, ".txt")
	assert.IsIncreasing(t, exts)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	f, err := OpenFile(txt)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name())
	assert.Equal(t, int64(5), f.Size())
	assert.Equal(t, "text/plain", f.Type())
	data, err := ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// No extension: the type is sniffed from content.
	sniffed := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(sniffed, []byte("%PDF-1.7 rest"), 0o644))
	f, err = OpenFile(sniffed)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.Type())
	assert.Equal(t, KindPDF, Classify(f))

	_, err = OpenFile(dir)
	assert.Error(t, err)
	_, err = OpenFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestNewMemoryFile(t *testing.T) {
	f := NewMemoryFile("a.png", "", []byte("0123456789"))
	assert.Equal(t, "image/png", f.Type())
	assert.Equal(t, int64(10), f.Size())

	f = NewMemoryFile("a.png", "image/custom", nil)
	assert.Equal(t, "image/custom", f.Type())
}
