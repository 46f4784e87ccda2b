package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractor_Extract(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"utf8", []byte("hello world"), "hello world"},
		{"utf8 bom", []byte("\xef\xbb\xbfhello"), "hello"},
		{"utf16le bom", []byte{0xff, 0xfe, 'h', 0, 'i', 0}, "hi"},
		{"utf16be bom", []byte{0xfe, 0xff, 0, 'h', 0, 'i'}, "hi"},
		{"crlf", []byte("a\r\nb\r\n"), "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var progress []string
			text, err := (&TextExtractor{}).Extract(context.Background(), NewMemoryFile("f.txt", "", tt.content), func(msg string) {
				progress = append(progress, msg)
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, []string{"Reading text file...", "Text extraction complete"}, progress)
		})
	}
}

func TestTextExtractor_Empty(t *testing.T) {
	for _, content := range [][]byte{nil, []byte("  \n\t "), []byte("\xef\xbb\xbf")} {
		_, err := (&TextExtractor{}).Extract(context.Background(), NewMemoryFile("f.txt", "", content), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoTextFound)
		assert.Equal(t, ErrKindNoText, ClassifyError(err))
		assert.Contains(t, err.Error(), "Text extraction failed: ")
	}
}
