package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/salesdesk/salesdesk/internal/log"
)

// DefaultMaxSteps bounds model invocations per request. A typical
// answer (one tool call, then a synthesis) completes in two steps.
const DefaultMaxSteps = 5

// ChatMessage is one entry of the caller-supplied conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat turn: the conversation so far including the new
// user message, an optional system prompt override, and an optional
// model name override.
type Request struct {
	Messages []ChatMessage `json:"messages"`
	System   string        `json:"system,omitempty"`
	Model    string        `json:"model,omitempty"`
}

// Result summarizes a completed turn.
type Result struct {
	Text      string // final answer, also delivered via the stream
	Steps     int    // model invocations consumed
	ToolCalls int    // tool executions across all steps
}

// Config contains the required parameters for an Assistant.
type Config struct {
	Model     Model
	Registry  *Registry
	Prompts   *PromptBuilder
	Logger    log.Logger
	MaxSteps  int    // 0 uses DefaultMaxSteps
	ModelName string // default model, overridable per request
}

func (cfg Config) validate() error {
	if cfg.Model == nil {
		return errors.New("model is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Prompts == nil {
		return errors.New("prompt builder is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Assistant drives the tool-orchestration loop. It is stateless
// across requests; each request owns its conversation and budget, so
// one Assistant serves concurrent requests.
type Assistant struct {
	model     Model
	registry  *Registry
	prompts   *PromptBuilder
	logger    log.Logger
	maxSteps  int
	modelName string
}

// New creates an Assistant from the given configuration.
func New(cfg Config) (*Assistant, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	a := &Assistant{
		model:     cfg.Model,
		registry:  cfg.Registry,
		prompts:   cfg.Prompts,
		logger:    logger,
		maxSteps:  maxSteps,
		modelName: cfg.ModelName,
	}

	a.logger.Info("assistant initialized",
		"tools", strings.Join(cfg.Registry.Names(), ", "),
		"max_steps", maxSteps,
		"model", cfg.ModelName)

	return a, nil
}

// Respond runs the orchestration loop for one request. Text chunks
// are delivered through stream as the model produces them; the final
// answer is also returned in the Result.
//
// Each iteration sends the conversation and tool catalogue to the
// model. Tool requests are executed and appended as tool results in
// request order, then the loop continues. The final budgeted
// invocation is made without tools; if it still yields no text, a
// deterministic fallback message is produced. Model invocations never
// exceed MaxSteps.
func (a *Assistant) Respond(ctx context.Context, req Request, stream StreamFunc) (*Result, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	modelName := req.Model
	if modelName == "" {
		modelName = a.modelName
	}

	system := a.prompts.Build(ctx, req.System)
	messages := toModelMessages(req.Messages)

	result := &Result{}
	for step := 1; step <= a.maxSteps; step++ {
		result.Steps = step
		final := step == a.maxSteps

		greq := GenerateRequest{
			ModelName: modelName,
			System:    system,
			Messages:  messages,
		}
		if !final {
			greq.Tools = a.registry.Refs()
		}

		res, err := a.model.Generate(ctx, greq, stream)
		if err != nil {
			return nil, err
		}

		if len(res.ToolRequests) == 0 {
			text := res.Text
			if strings.TrimSpace(text) == "" {
				a.logger.Warn("model returned empty response", "step", step)
				break
			}
			result.Text = text
			a.logger.Debug("chat turn complete",
				"steps", result.Steps, "tool_calls", result.ToolCalls)
			return result, nil
		}

		a.logger.Debug("model requested tools",
			"step", step, "count", len(res.ToolRequests))

		toolResults := a.registry.ExecuteAll(ctx, res.ToolRequests)
		result.ToolCalls += len(toolResults)

		messages = append(messages, res.Message)
		messages = append(messages, toolResultsMessage(toolResults))
	}

	// No text answer within budget.
	a.logger.Warn("no answer produced, using fallback",
		"steps", result.Steps, "tool_calls", result.ToolCalls)
	result.Text = FallbackMessage
	if stream != nil {
		if err := stream(ctx, FallbackMessage); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// toModelMessages converts the transport conversation to model
// messages. The loop only appends to this log, never reorders it.
func toModelMessages(msgs []ChatMessage) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		var role ai.Role
		switch m.Role {
		case "assistant", "model":
			role = ai.RoleModel
		case "system":
			role = ai.RoleSystem
		case "tool":
			role = ai.RoleTool
		default:
			role = ai.RoleUser
		}
		out = append(out, ai.NewMessage(role, nil, ai.NewTextPart(m.Content)))
	}
	return out
}

// toolResultsMessage packs a step's tool results into a single tool
// message, preserving request order.
func toolResultsMessage(results []ToolResult) *ai.Message {
	parts := make([]*ai.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   r.Name,
			Ref:    r.Ref,
			Output: r.Output,
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...)
}
