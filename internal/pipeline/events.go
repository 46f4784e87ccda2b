package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of extraction lifecycle event
type EventType string

const (
	EventExtractionCompleted EventType = "extraction.completed"
	EventExtractionFailed    EventType = "extraction.failed"
	EventPayloadSent         EventType = "payload.sent"
	EventPayloadFailed       EventType = "payload.failed"
)

// ExtractionEvent describes one step of handling an uploaded file
type ExtractionEvent struct {
	ID            string                 `json:"id"`
	Type          EventType              `json:"type"`
	Timestamp     time.Time              `json:"timestamp"`
	Filename      string                 `json:"filename"`
	FileType      string                 `json:"file_type,omitempty"`
	Kind          string                 `json:"kind,omitempty"`
	ContentLength int                    `json:"content_length,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// NewExtractionEvent creates a new event for filename
func NewExtractionEvent(eventType EventType, filename string) *ExtractionEvent {
	return &ExtractionEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Filename:  filename,
		Metadata:  make(map[string]interface{}),
	}
}

// WithError records err on the event and returns it.
func (e *ExtractionEvent) WithError(err error) *ExtractionEvent {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return "evt_" + uuid.NewString()
}

// ExtractionOutcome builds the completed or failed event for one extraction.
func ExtractionOutcome(filename, fileType, kind string, contentLength int, err error) *ExtractionEvent {
	eventType := EventExtractionCompleted
	if err != nil {
		eventType = EventExtractionFailed
	}
	event := NewExtractionEvent(eventType, filename).WithError(err)
	event.FileType = fileType
	event.Kind = kind
	if err == nil {
		event.ContentLength = contentLength
	}
	return event
}

// PayloadOutcome builds the sent or failed event for one payload send.
func PayloadOutcome(filename string, disabled bool, err error) *ExtractionEvent {
	eventType := EventPayloadSent
	if err != nil {
		eventType = EventPayloadFailed
	}
	event := NewExtractionEvent(eventType, filename).WithError(err)
	event.Metadata["disabled"] = disabled
	return event
}
