package extractor

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SourceFile is a user-selected file. The pipeline reads it but never
// modifies it.
type SourceFile interface {
	Name() string
	Size() int64
	// Type is the declared MIME type, possibly empty.
	Type() string
	Open() (io.ReadCloser, error)
}

type memoryFile struct {
	name     string
	mimeType string
	data     []byte
}

// NewMemoryFile wraps in-memory content as a SourceFile. An empty mimeType
// is derived from the file extension.
func NewMemoryFile(name, mimeType string, data []byte) SourceFile {
	if mimeType == "" {
		mimeType = mimeFromName(name)
	}
	return &memoryFile{name: name, mimeType: mimeType, data: data}
}

func (f *memoryFile) Name() string { return f.name }
func (f *memoryFile) Size() int64  { return int64(len(f.data)) }
func (f *memoryFile) Type() string { return f.mimeType }

func (f *memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type diskFile struct {
	path     string
	size     int64
	mimeType string
}

// OpenFile returns a SourceFile for a file on disk. The MIME type comes
// from the extension, falling back to content sniffing.
func OpenFile(path string) (SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mimeType := mimeFromName(path)
	if mimeType == "" {
		mimeType, err = sniff(path)
		if err != nil {
			return nil, err
		}
	}
	return &diskFile{path: path, size: info.Size(), mimeType: mimeType}, nil
}

func (f *diskFile) Name() string { return filepath.Base(f.path) }
func (f *diskFile) Size() int64  { return f.size }
func (f *diskFile) Type() string { return f.mimeType }

func (f *diskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

func sniff(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(fh, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	return http.DetectContentType(head[:n]), nil
}

func mimeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// ReadAll reads the whole file.
func ReadAll(f SourceFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
