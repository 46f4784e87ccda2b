package api

import (
	"context"
	"time"

	"github.com/Caia-Tech/caia-extractor/internal/temporal/workflows"
	"github.com/Caia-Tech/caia-extractor/internal/ui"
	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// JobClient is the part of the Temporal client the job endpoints use.
type JobClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	GetWorkflow(ctx context.Context, workflowID, runID string) client.WorkflowRun
}

// JobResponse represents the response for a started job
type JobResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	Size       int64  `json:"size"`
	Forward    bool   `json:"forward"`
}

// JobStatusResponse represents job status
type JobStatusResponse struct {
	WorkflowID string                      `json:"workflow_id"`
	Status     string                      `json:"status"`
	StartTime  time.Time                   `json:"start_time"`
	CloseTime  *time.Time                  `json:"close_time,omitempty"`
	Error      string                      `json:"error,omitempty"`
	Result     *workflows.ExtractionResult `json:"result,omitempty"`
}

// StartJob starts an asynchronous extraction workflow for an uploaded file
func (h *Handlers) StartJob(c *fiber.Ctx) error {
	if h.opts.Jobs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Background jobs are disabled")
	}

	file, err := h.uploadedFile(c)
	if err != nil {
		return err
	}
	content, err := extractor.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to read file content")
	}
	forward := c.FormValue("forward") == "true" || c.QueryBool("forward")

	workflowID := "extract-" + uuid.New().String()
	we, err := h.opts.Jobs.ExecuteWorkflow(c.UserContext(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: h.opts.TaskQueue,
	}, workflows.ExtractionWorkflow, workflows.ExtractionInput{
		Filename:    file.Name(),
		ContentType: file.Type(),
		Content:     content,
		Forward:     forward,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("workflow_id", workflowID).Msg("Failed to start extraction workflow")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Failed to start extraction job",
			Details: err.Error(),
		})
	}

	h.logger.Info().
		Str("workflow_id", we.GetID()).
		Str("filename", file.Name()).
		Int64("size", file.Size()).
		Msg("Started extraction workflow")

	return c.Status(fiber.StatusAccepted).JSON(JobResponse{
		WorkflowID: we.GetID(),
		RunID:      we.GetRunID(),
		Filename:   file.Name(),
		FileType:   file.Type(),
		Size:       file.Size(),
		Forward:    forward,
	})
}

// GetJob returns the status of an extraction workflow, with its result once
// completed
func (h *Handlers) GetJob(c *fiber.Ctx) error {
	if h.opts.Jobs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Background jobs are disabled")
	}

	workflowID := c.Params("id")
	resp, err := h.opts.Jobs.DescribeWorkflowExecution(c.UserContext(), workflowID, "")
	if err != nil {
		h.logger.Debug().Err(err).Str("workflow_id", workflowID).Msg("Failed to describe workflow")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":       "Job not found",
			"workflow_id": workflowID,
		})
	}

	info := resp.GetWorkflowExecutionInfo()
	status := JobStatusResponse{
		WorkflowID: workflowID,
		Status:     info.GetStatus().String(),
		StartTime:  info.GetStartTime().AsTime(),
	}
	if info.GetCloseTime() != nil {
		closeTime := info.GetCloseTime().AsTime()
		status.CloseTime = &closeTime
	}

	switch info.GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var result workflows.ExtractionResult
		if err := h.opts.Jobs.GetWorkflow(c.UserContext(), workflowID, "").Get(c.UserContext(), &result); err != nil {
			status.Error = err.Error()
		} else {
			status.Result = &result
		}
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		if err := h.opts.Jobs.GetWorkflow(c.UserContext(), workflowID, "").Get(c.UserContext(), nil); err != nil {
			status.Error = ui.UserMessage(err)
		}
	}

	return c.JSON(status)
}
