// Package transport forwards extracted content to a remote API.
package transport

import (
	"time"
	"unicode/utf8"
)

// isoMillis matches the ISO-8601 form existing consumers parse, e.g.
// 2025-03-01T12:00:00.000Z.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// File is the metadata the payload needs from a source file.
type File interface {
	Name() string
	Type() string
	Size() int64
}

// Payload is the JSON body posted to the remote API.
type Payload struct {
	Filename         string   `json:"filename"`
	FileType         string   `json:"fileType"`
	FileSize         int64    `json:"fileSize"`
	ExtractedContent string   `json:"extractedContent"`
	Timestamp        string   `json:"timestamp"`
	Metadata         Metadata `json:"metadata"`
}

// Metadata describes the processing run.
type Metadata struct {
	ProcessingDate string `json:"processingDate"`
	ContentLength  int    `json:"contentLength"`
}

// PreparePayload builds the payload for file and its extracted content,
// stamped with the current time.
func PreparePayload(file File, extractedContent string) Payload {
	return PreparePayloadAt(file, extractedContent, time.Now())
}

// PreparePayloadAt is PreparePayload with an explicit capture time.
func PreparePayloadAt(file File, extractedContent string, at time.Time) Payload {
	stamp := at.UTC().Format(isoMillis)
	return Payload{
		Filename:         file.Name(),
		FileType:         file.Type(),
		FileSize:         file.Size(),
		ExtractedContent: extractedContent,
		Timestamp:        stamp,
		Metadata: Metadata{
			ProcessingDate: stamp,
			ContentLength:  utf8.RuneCountInString(extractedContent),
		},
	}
}

// FileInfo is a plain File value, used when only metadata is at hand.
type FileInfo struct {
	Filename string
	MIMEType string
	Bytes    int64
}

func (f FileInfo) Name() string { return f.Filename }
func (f FileInfo) Type() string { return f.MIMEType }
func (f FileInfo) Size() int64  { return f.Bytes }
