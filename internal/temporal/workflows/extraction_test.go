package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func newTestEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	// Placeholders so the activities can be mocked by name.
	env.RegisterActivityWithOptions(
		func(ctx context.Context, input ExtractContentInput) (ExtractContentResult, error) {
			return ExtractContentResult{}, nil
		},
		activity.RegisterOptions{Name: ExtractContentActivityName},
	)
	env.RegisterActivityWithOptions(
		func(ctx context.Context, input SendPayloadInput) (SendPayloadResult, error) {
			return SendPayloadResult{}, nil
		},
		activity.RegisterOptions{Name: SendPayloadActivityName},
	)
	return env
}

func TestExtractionWorkflow(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity(ExtractContentActivityName, mock.Anything, ExtractContentInput{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Content:     []byte("hello"),
	}).Return(ExtractContentResult{Kind: "text", FileType: "text/plain", Text: "hello", ContentLength: 5}, nil).Once()

	env.ExecuteWorkflow(ExtractionWorkflow, ExtractionInput{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Content:     []byte("hello"),
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, "text", result.Kind)
	assert.Equal(t, int64(5), result.FileSize)
	assert.False(t, result.Forwarded)

	env.AssertExpectations(t)
	env.AssertActivityNotCalled(t, SendPayloadActivityName, mock.Anything, mock.Anything)
}

func TestExtractionWorkflow_Forward(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity(ExtractContentActivityName, mock.Anything, mock.Anything).
		Return(ExtractContentResult{Kind: "image", FileType: "image/png", Text: "scanned", ContentLength: 7}, nil)
	env.OnActivity(SendPayloadActivityName, mock.Anything, SendPayloadInput{
		Filename: "scan.png",
		FileType: "image/png",
		FileSize: 3,
		Text:     "scanned",
	}).Return(SendPayloadResult{Success: true, Disabled: true, Message: "API is disabled in config"}, nil).Once()

	env.ExecuteWorkflow(ExtractionWorkflow, ExtractionInput{
		Filename:    "scan.png",
		ContentType: "image/png",
		Content:     []byte{1, 2, 3},
		Forward:     true,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Forwarded)
	require.NotNil(t, result.APIResult)
	assert.True(t, result.APIResult.Disabled)
	env.AssertExpectations(t)
}

func TestExtractionWorkflow_SendFailureKeepsText(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity(ExtractContentActivityName, mock.Anything, mock.Anything).
		Return(ExtractContentResult{Kind: "text", Text: "kept", ContentLength: 4}, nil)
	env.OnActivity(SendPayloadActivityName, mock.Anything, mock.Anything).
		Return(SendPayloadResult{}, errors.New("API error: API request failed: 502 Bad Gateway")).Once()

	env.ExecuteWorkflow(ExtractionWorkflow, ExtractionInput{Filename: "a.txt", Content: []byte("kept"), Forward: true})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "kept", result.Text)
	assert.False(t, result.Forwarded)
	assert.Contains(t, result.APIError, "502 Bad Gateway")

	// Sends are attempted once.
	env.AssertActivityNumberOfCalls(t, SendPayloadActivityName, 1)
}

func TestExtractionWorkflow_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity(ExtractContentActivityName, mock.Anything, mock.Anything).
		Return(ExtractContentResult{}, temporal.NewNonRetryableApplicationError("PDF extraction failed: no text", "no_text_found", nil)).Once()

	env.ExecuteWorkflow(ExtractionWorkflow, ExtractionInput{Filename: "a.pdf", Content: []byte("%PDF"), Forward: true})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "no_text_found", appErr.Type())
	env.AssertActivityNumberOfCalls(t, ExtractContentActivityName, 1)
	env.AssertActivityNotCalled(t, SendPayloadActivityName, mock.Anything, mock.Anything)
}
