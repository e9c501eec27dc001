package assistant

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenerateRequest is one model invocation: the system prompt, the
// conversation so far, and the tools the model may request. A nil
// Tools slice withholds the catalogue, forcing a text answer.
type GenerateRequest struct {
	ModelName string
	System    string
	Messages  []*ai.Message
	Tools     []ai.ToolRef
}

// StepResult is what one model invocation produced: either final text
// or tool-call requests (possibly both). Message is the raw model
// turn, appended to the conversation before tool results.
type StepResult struct {
	Text         string
	ToolRequests []*ai.ToolRequest
	Message      *ai.Message
}

// StreamFunc receives text chunks as the model produces them.
// Returning an error aborts the stream.
type StreamFunc func(ctx context.Context, chunk string) error

// Model is the narrow interface the orchestration loop drives. It
// hides the provider so the loop's control flow is testable with a
// scripted implementation.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest, stream StreamFunc) (*StepResult, error)
}

// GenkitModel adapts a Genkit instance to the Model interface. Tool
// requests are returned to the caller rather than resolved by Genkit,
// because the loop owns execution, budgeting, and result ordering.
type GenkitModel struct {
	g *genkit.Genkit
}

// NewGenkitModel wraps a Genkit instance.
func NewGenkitModel(g *genkit.Genkit) *GenkitModel {
	return &GenkitModel{g: g}
}

// Generate performs one model invocation.
func (m *GenkitModel) Generate(ctx context.Context, req GenerateRequest, stream StreamFunc) (*StepResult, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(req.ModelName),
		ai.WithSystem(req.System),
		ai.WithMessages(req.Messages...),
	}
	if len(req.Tools) > 0 {
		opts = append(opts,
			ai.WithTools(req.Tools...),
			ai.WithReturnToolRequests(true),
		)
	}
	if stream != nil {
		opts = append(opts, ai.WithStreaming(
			func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
				text := chunk.Text()
				if text == "" {
					return nil
				}
				return stream(ctx, text)
			}))
	}

	resp, err := genkit.Generate(ctx, m.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	return &StepResult{
		Text:         resp.Text(),
		ToolRequests: resp.ToolRequests(),
		Message:      resp.Message,
	}, nil
}
