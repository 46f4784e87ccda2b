package activities

import (
	"context"
	"unicode/utf8"

	"github.com/Caia-Tech/caia-extractor/internal/pipeline"
	"github.com/Caia-Tech/caia-extractor/internal/temporal/workflows"
	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/Caia-Tech/caia-extractor/pkg/transport"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
)

// Activities holds the dependencies shared by the extraction activities.
type Activities struct {
	service *extractor.Service
	client  *transport.Client
	bus     *pipeline.EventBus
}

// NewActivities creates the activity set. bus may be nil.
func NewActivities(service *extractor.Service, client *transport.Client, bus *pipeline.EventBus) *Activities {
	return &Activities{service: service, client: client, bus: bus}
}

// Register adds the activities to a worker under their workflow names.
func (a *Activities) Register(r worker.ActivityRegistry) {
	r.RegisterActivityWithOptions(a.ExtractContent, activity.RegisterOptions{Name: workflows.ExtractContentActivityName})
	r.RegisterActivityWithOptions(a.SendPayload, activity.RegisterOptions{Name: workflows.SendPayloadActivityName})
}

// ExtractContent runs the dispatcher on the uploaded bytes. Progress
// messages are recorded as heartbeats.
func (a *Activities) ExtractContent(ctx context.Context, input workflows.ExtractContentInput) (workflows.ExtractContentResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Extracting content", "filename", input.Filename, "type", input.ContentType, "contentSize", len(input.Content))

	file := extractor.NewMemoryFile(input.Filename, input.ContentType, input.Content)
	kind := extractor.Classify(file).String()

	text, err := a.service.Extract(ctx, file, func(msg string) {
		activity.RecordHeartbeat(ctx, msg)
	})
	a.publish(pipeline.ExtractionOutcome(file.Name(), file.Type(), kind, utf8.RuneCountInString(text), err))
	if err != nil {
		// Retrying cannot fix a bad file, and engine load retries belong to the loader.
		return workflows.ExtractContentResult{}, temporal.NewNonRetryableApplicationError(
			err.Error(), string(extractor.ClassifyError(err)), err)
	}

	logger.Info("Content extracted", "filename", input.Filename, "kind", kind, "textLength", len(text))
	return workflows.ExtractContentResult{
		Kind:          kind,
		FileType:      file.Type(),
		Text:          text,
		ContentLength: utf8.RuneCountInString(text),
	}, nil
}

// SendPayload forwards extracted text through the API transport.
func (a *Activities) SendPayload(ctx context.Context, input workflows.SendPayloadInput) (workflows.SendPayloadResult, error) {
	logger := activity.GetLogger(ctx)

	payload := transport.PreparePayload(transport.FileInfo{
		Filename: input.Filename,
		MIMEType: input.FileType,
		Bytes:    input.FileSize,
	}, input.Text)

	result, err := a.client.Send(ctx, payload)
	a.publish(pipeline.PayloadOutcome(input.Filename, !a.client.Enabled(), err))
	if err != nil {
		logger.Error("Payload send failed", "filename", input.Filename, "error", err)
		return workflows.SendPayloadResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "transport", err)
	}

	return workflows.SendPayloadResult{
		Success:  result.Success,
		Disabled: result.Disabled,
		Message:  result.Message,
	}, nil
}

func (a *Activities) publish(event *pipeline.ExtractionEvent) {
	if a.bus == nil {
		return
	}
	// Publish only fails when the bus is full or closed; the event is then dropped.
	_ = a.bus.Publish(event)
}
