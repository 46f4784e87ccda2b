package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ExtractionInput represents the input for the extraction workflow
type ExtractionInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
	Forward     bool   `json:"forward"`
}

// ExtractionResult is returned by a completed extraction workflow
type ExtractionResult struct {
	Filename      string             `json:"filename"`
	FileType      string             `json:"file_type"`
	FileSize      int64              `json:"file_size"`
	Kind          string             `json:"kind"`
	Text          string             `json:"content"`
	ContentLength int                `json:"content_length"`
	Forwarded     bool               `json:"forwarded"`
	APIResult     *SendPayloadResult `json:"api_result,omitempty"`
	APIError      string             `json:"api_error,omitempty"`
}

// Activity types
type ExtractContentInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

type ExtractContentResult struct {
	Kind          string `json:"kind"`
	FileType      string `json:"file_type"`
	Text          string `json:"text"`
	ContentLength int    `json:"content_length"`
}

type SendPayloadInput struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	Text     string `json:"text"`
}

type SendPayloadResult struct {
	Success  bool   `json:"success"`
	Disabled bool   `json:"disabled,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Activity names for registration
const (
	ExtractContentActivityName = "ExtractContentActivity"
	SendPayloadActivityName    = "SendPayloadActivity"
)

// ExtractionWorkflow extracts text from an uploaded file and optionally
// forwards it to the configured API. Neither activity is retried.
func ExtractionWorkflow(ctx workflow.Context, input ExtractionInput) (ExtractionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting extraction", "filename", input.Filename, "type", input.ContentType)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute, // OCR of large scans is slow
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var extracted ExtractContentResult
	err := workflow.ExecuteActivity(ctx, ExtractContentActivityName, ExtractContentInput{
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Content:     input.Content,
	}).Get(ctx, &extracted)
	if err != nil {
		return ExtractionResult{}, err
	}

	result := ExtractionResult{
		Filename:      input.Filename,
		FileType:      extracted.FileType,
		FileSize:      int64(len(input.Content)),
		Kind:          extracted.Kind,
		Text:          extracted.Text,
		ContentLength: extracted.ContentLength,
	}
	if !input.Forward {
		logger.Info("Extraction completed", "filename", input.Filename, "contentLength", result.ContentLength)
		return result, nil
	}

	var sent SendPayloadResult
	err = workflow.ExecuteActivity(ctx, SendPayloadActivityName, SendPayloadInput{
		Filename: input.Filename,
		FileType: extracted.FileType,
		FileSize: result.FileSize,
		Text:     extracted.Text,
	}).Get(ctx, &sent)
	if err != nil {
		// The extracted text is still returned.
		logger.Warn("Payload send failed", "filename", input.Filename, "error", err)
		result.APIError = err.Error()
		return result, nil
	}

	result.Forwarded = true
	result.APIResult = &sent
	logger.Info("Extraction completed and forwarded", "filename", input.Filename)
	return result, nil
}
