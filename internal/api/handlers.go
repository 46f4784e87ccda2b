package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/Caia-Tech/caia-extractor/internal/metrics"
	"github.com/Caia-Tech/caia-extractor/internal/pipeline"
	"github.com/Caia-Tech/caia-extractor/internal/ui"
	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/Caia-Tech/caia-extractor/pkg/logging"
	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/Caia-Tech/caia-extractor/pkg/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const version = "0.2.0"

// Options wires the handler dependencies. Loader, Bus, Metrics and Jobs
// are optional.
type Options struct {
	Service     *extractor.Service
	Loader      *ocr.Loader
	Transport   *transport.Client
	Bus         *pipeline.EventBus
	Metrics     *metrics.Collector
	Jobs        JobClient
	TaskQueue   string
	MaxFileSize int64
	Timeout     time.Duration
}

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	opts   Options
	logger zerolog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(opts Options) *Handlers {
	return &Handlers{
		opts:   opts,
		logger: logging.GetLogger("api"),
	}
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":    "healthy",
		"service":   "caia-extractor",
		"version":   version,
		"timestamp": time.Now().UTC(),
		"api":       h.opts.Transport.Enabled(),
		"jobs":      h.opts.Jobs != nil,
	}
	if h.opts.Loader != nil {
		resp["ocr_engine_loaded"] = h.opts.Loader.Loaded()
	}
	return c.JSON(resp)
}

// Stats returns event bus statistics and the accepted file types
func (h *Handlers) Stats(c *fiber.Ctx) error {
	resp := fiber.Map{
		"supported_types": h.opts.Service.Supported(),
	}
	if h.opts.Bus != nil {
		resp["events"] = h.opts.Bus.GetStats()
	}
	return c.JSON(resp)
}

// ExtractResponse is the body of a successful extraction
type ExtractResponse struct {
	Filename      string            `json:"filename"`
	FileType      string            `json:"file_type"`
	FileSize      int64             `json:"file_size"`
	Kind          string            `json:"kind"`
	Content       string            `json:"content"`
	ContentLength int               `json:"content_length"`
	APIResult     *transport.Result `json:"api_result,omitempty"`
	APIError      string            `json:"api_error,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Extract extracts text from an uploaded file. ?stream=true streams progress
// as server-sent events; ?forward=true sends the result to the configured API.
func (h *Handlers) Extract(c *fiber.Ctx) error {
	file, err := h.uploadedFile(c)
	if err != nil {
		return err
	}
	forward := c.QueryBool("forward")

	if c.QueryBool("stream") {
		return h.streamExtract(c, file, forward)
	}

	ctx, cancel := h.extractionContext(c.UserContext())
	defer cancel()

	resp, err := h.extract(ctx, file, nil)
	if err != nil {
		return c.Status(statusFor(err)).JSON(errorBody(err))
	}
	if forward {
		h.forward(ctx, file, resp)
	}
	return c.JSON(resp)
}

func (h *Handlers) streamExtract(c *fiber.Ctx, file extractor.SourceFile, forward bool) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// The writer runs after the handler returns, so it cannot use c.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := h.extractionContext(context.Background())
		defer cancel()

		progress := func(msg string) {
			writeEvent(w, "progress", fiber.Map{"message": msg})
		}

		resp, err := h.extract(ctx, file, progress)
		if err != nil {
			writeEvent(w, "error", errorBody(err))
			return
		}
		if forward {
			h.forward(ctx, file, resp)
		}
		writeEvent(w, "result", resp)
	})
	return nil
}

func writeEvent(w *bufio.Writer, event string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		body = []byte(`{"error":"encode event"}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body)
	// A flush error means the client went away; extraction still runs to
	// completion so the worker is released.
	_ = w.Flush()
}

func (h *Handlers) extract(ctx context.Context, file extractor.SourceFile, progress extractor.ProgressFunc) (*ExtractResponse, error) {
	kind := extractor.Classify(file)

	text, err := h.opts.Service.Extract(ctx, file, progress)
	length := utf8.RuneCountInString(text)
	h.publish(pipeline.ExtractionOutcome(file.Name(), file.Type(), kind.String(), length, err))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("filename", file.Name()).
			Str("kind", kind.String()).
			Msg("Extraction failed")
		return nil, err
	}

	return &ExtractResponse{
		Filename:      file.Name(),
		FileType:      file.Type(),
		FileSize:      file.Size(),
		Kind:          kind.String(),
		Content:       text,
		ContentLength: length,
	}, nil
}

// forward sends an extraction result and records the outcome on resp. A
// transport failure never discards the extracted content.
func (h *Handlers) forward(ctx context.Context, file extractor.SourceFile, resp *ExtractResponse) {
	result, err := h.send(ctx, transport.PreparePayload(file, resp.Content))
	if err != nil {
		resp.APIError = ui.UserMessage(err)
		return
	}
	resp.APIResult = result
}

func (h *Handlers) send(ctx context.Context, payload transport.Payload) (*transport.Result, error) {
	result, err := h.opts.Transport.Send(ctx, payload)
	disabled := !h.opts.Transport.Enabled()
	h.publish(pipeline.PayloadOutcome(payload.Filename, disabled, err))
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveSend(disabled, err)
	}
	return result, err
}

// ForwardRequest is an on-demand send of previously extracted content
type ForwardRequest struct {
	Filename         string `json:"filename"`
	FileType         string `json:"file_type"`
	FileSize         int64  `json:"file_size"`
	ExtractedContent string `json:"extracted_content"`
}

// Forward sends already extracted content to the configured API
func (h *Handlers) Forward(c *fiber.Ctx) error {
	var req ForwardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
	}
	if req.Filename == "" || req.ExtractedContent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "filename and extracted_content are required",
		})
	}

	payload := transport.PreparePayload(transport.FileInfo{
		Filename: req.Filename,
		MIMEType: req.FileType,
		Bytes:    req.FileSize,
	}, req.ExtractedContent)

	result, err := h.send(c.UserContext(), payload)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error:   ui.UserMessage(err),
			Details: err.Error(),
		})
	}
	return c.JSON(result)
}

// uploadedFile reads the multipart "file" field.
func (h *Handlers) uploadedFile(c *fiber.Ctx) (extractor.SourceFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded or invalid file format")
	}

	if h.opts.MaxFileSize > 0 && header.Size > h.opts.MaxFileSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large: %d bytes. Maximum size is %d bytes", header.Size, h.opts.MaxFileSize))
	}

	src, err := header.Open()
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to open uploaded file")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to process uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read uploaded file")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to read file content")
	}

	// Generic part types carry no information; derive from the name instead.
	mimeType := header.Header.Get(fiber.HeaderContentType)
	if mimeType == fiber.MIMEOctetStream {
		mimeType = ""
	}
	return extractor.NewMemoryFile(header.Filename, mimeType, content), nil
}

func (h *Handlers) extractionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.opts.Timeout > 0 {
		return context.WithTimeout(parent, h.opts.Timeout)
	}
	return context.WithCancel(parent)
}

func (h *Handlers) publish(event *pipeline.ExtractionEvent) {
	if h.opts.Bus == nil {
		return
	}
	if err := h.opts.Bus.Publish(event); err != nil {
		h.logger.Debug().Err(err).Str("event_type", string(event.Type)).Msg("Event not published")
	}
}

// statusFor maps an extraction failure to an HTTP status
func statusFor(err error) int {
	switch extractor.ClassifyError(err) {
	case extractor.ErrKindUnsupported:
		return fiber.StatusUnsupportedMediaType
	case extractor.ErrKindNoText:
		return fiber.StatusUnprocessableEntity
	case extractor.ErrKindEngineLoad:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorBody(err error) ErrorResponse {
	return ErrorResponse{
		Error:   ui.UserMessage(err),
		Details: err.Error(),
		Kind:    string(extractor.ClassifyError(err)),
	}
}
