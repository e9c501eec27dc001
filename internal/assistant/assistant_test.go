package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// scriptedModel returns pre-programmed step results in order and
// records every request it receives. Steps beyond the script return
// an empty response.
type scriptedModel struct {
	mu    sync.Mutex
	steps []*StepResult
	err   error
	calls []GenerateRequest
}

func (m *scriptedModel) Generate(ctx context.Context, req GenerateRequest, stream StreamFunc) (*StepResult, error) {
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if idx >= len(m.steps) {
		return &StepResult{Message: ai.NewModelMessage(ai.NewTextPart(""))}, nil
	}

	st := m.steps[idx]
	if stream != nil && st.Text != "" {
		if err := stream(ctx, st.Text); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func textStep(text string) *StepResult {
	return &StepResult{
		Text:    text,
		Message: ai.NewModelMessage(ai.NewTextPart(text)),
	}
}

func toolStep(reqs ...*ai.ToolRequest) *StepResult {
	parts := make([]*ai.Part, 0, len(reqs))
	for _, tr := range reqs {
		parts = append(parts, &ai.Part{Kind: ai.PartToolRequest, ToolRequest: tr})
	}
	return &StepResult{
		ToolRequests: reqs,
		Message:      ai.NewMessage(ai.RoleModel, nil, parts...),
	}
}

func newTestAssistant(t *testing.T, model Model, registry *Registry) *Assistant {
	t.Helper()
	if registry == nil {
		registry = NewRegistry(nil)
	}
	a, err := New(Config{
		Model:     model,
		Registry:  registry,
		Prompts:   NewPromptBuilder(&fakeProfiles{}, "", nil),
		ModelName: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func userRequest(text string) Request {
	return Request{Messages: []ChatMessage{{Role: "user", Content: text}}}
}

// collectStream appends chunks to a shared builder.
func collectStream(sb *strings.Builder) StreamFunc {
	return func(_ context.Context, chunk string) error {
		sb.WriteString(chunk)
		return nil
	}
}

func TestRespondDirectAnswer(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{steps: []*StepResult{textStep("Hola, ¿en qué puedo ayudarte?")}}
	a := newTestAssistant(t, model, nil)

	var streamed strings.Builder
	res, err := a.Respond(context.Background(), userRequest("hola"), collectStream(&streamed))
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if res.Text != "Hola, ¿en qué puedo ayudarte?" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Steps != 1 || res.ToolCalls != 0 {
		t.Errorf("Steps = %d, ToolCalls = %d, want 1 and 0", res.Steps, res.ToolCalls)
	}
	if streamed.String() != res.Text {
		t.Errorf("streamed %q, want the final text", streamed.String())
	}
	if len(model.calls) != 1 {
		t.Fatalf("model invoked %d times, want 1", len(model.calls))
	}
	if got := model.calls[0].System; !strings.Contains(got, "ERP de ventas") {
		t.Errorf("system prompt = %q, want the base persona", got)
	}
}

func TestRespondToolRoundThenAnswer(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	if err := registry.Add(newEchoTool(t, "slow", 30*time.Millisecond)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := registry.Add(newEchoTool(t, "fast", 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	model := &scriptedModel{steps: []*StepResult{
		toolStep(
			&ai.ToolRequest{Name: "slow", Ref: "a", Input: map[string]any{"value": "uno"}},
			&ai.ToolRequest{Name: "fast", Ref: "b", Input: map[string]any{"value": "dos"}},
		),
		textStep("listo"),
	}}
	a := newTestAssistant(t, model, registry)

	res, err := a.Respond(context.Background(), userRequest("busca"), nil)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.Text != "listo" || res.Steps != 2 || res.ToolCalls != 2 {
		t.Errorf("got %+v, want text listo, 2 steps, 2 tool calls", res)
	}

	// The second invocation must see the model turn plus one tool
	// message whose results are in request order, slow before fast.
	if len(model.calls) != 2 {
		t.Fatalf("model invoked %d times, want 2", len(model.calls))
	}
	msgs := model.calls[1].Messages
	last := msgs[len(msgs)-1]
	if last.Role != ai.RoleTool {
		t.Fatalf("last message role = %q, want tool", last.Role)
	}
	if len(last.Content) != 2 {
		t.Fatalf("tool message has %d parts, want 2", len(last.Content))
	}
	if last.Content[0].ToolResponse.Name != "slow" || last.Content[1].ToolResponse.Name != "fast" {
		t.Errorf("tool results out of request order: %s, %s",
			last.Content[0].ToolResponse.Name, last.Content[1].ToolResponse.Name)
	}
}

func TestRespondUnknownToolContinues(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{steps: []*StepResult{
		toolStep(&ai.ToolRequest{Name: "inventado", Ref: "x", Input: map[string]any{}}),
		textStep("no existe esa herramienta"),
	}}
	a := newTestAssistant(t, model, nil)

	res, err := a.Respond(context.Background(), userRequest("usa la herramienta"), nil)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.Text != "no existe esa herramienta" {
		t.Errorf("Text = %q", res.Text)
	}

	msgs := model.calls[1].Messages
	last := msgs[len(msgs)-1]
	out, ok := last.Content[0].ToolResponse.Output.(map[string]any)
	if !ok || !strings.Contains(out["error"].(string), "tool not found") {
		t.Errorf("tool result = %v, want a tool not found error", last.Content[0].ToolResponse.Output)
	}
}

func TestRespondBudgetExhausted(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil)
	if err := registry.Add(newEchoTool(t, "echo", 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	registry.refs = make([]ai.ToolRef, 0)

	// The model requests a tool on every step, even the last.
	steps := make([]*StepResult, DefaultMaxSteps)
	for i := range steps {
		steps[i] = toolStep(&ai.ToolRequest{Name: "echo", Input: map[string]any{"value": "otra vez"}})
	}
	model := &scriptedModel{steps: steps}
	a := newTestAssistant(t, model, registry)

	var streamed strings.Builder
	res, err := a.Respond(context.Background(), userRequest("sigue"), collectStream(&streamed))
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if len(model.calls) != DefaultMaxSteps {
		t.Fatalf("model invoked %d times, must never exceed %d", len(model.calls), DefaultMaxSteps)
	}
	for i, call := range model.calls[:DefaultMaxSteps-1] {
		if call.Tools == nil {
			t.Errorf("call %d should advertise tools", i+1)
		}
	}
	if model.calls[DefaultMaxSteps-1].Tools != nil {
		t.Error("final budgeted call must be made without tools")
	}
	if res.Text != FallbackMessage {
		t.Errorf("Text = %q, want the fallback message", res.Text)
	}
	if streamed.String() != FallbackMessage {
		t.Errorf("streamed %q, want the fallback message", streamed.String())
	}
}

func TestRespondEmptyAnswerFallsBack(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{steps: []*StepResult{textStep("")}}
	a := newTestAssistant(t, model, nil)

	res, err := a.Respond(context.Background(), userRequest("hola"), nil)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.Text != FallbackMessage {
		t.Errorf("Text = %q, want fallback", res.Text)
	}
}

func TestRespondNoMessages(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{}
	a := newTestAssistant(t, model, nil)

	_, err := a.Respond(context.Background(), Request{}, nil)
	if !errors.Is(err, ErrNoMessages) {
		t.Errorf("err = %v, want ErrNoMessages", err)
	}
	if len(model.calls) != 0 {
		t.Errorf("model invoked %d times before validation", len(model.calls))
	}
}

func TestRespondModelErrorPropagates(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{err: errors.New("provider unreachable")}
	a := newTestAssistant(t, model, nil)

	_, err := a.Respond(context.Background(), userRequest("hola"), nil)
	if err == nil || !strings.Contains(err.Error(), "provider unreachable") {
		t.Errorf("err = %v, want the model error to propagate", err)
	}
}

func TestRespondSystemOverride(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{steps: []*StepResult{textStep("aye")}}
	a := newTestAssistant(t, model, nil)

	req := userRequest("hola")
	req.System = "You are a pirate."
	if _, err := a.Respond(context.Background(), req, nil); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if model.calls[0].System != "You are a pirate." {
		t.Errorf("system = %q, want the override verbatim", model.calls[0].System)
	}
}

func TestRespondModelOverride(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{steps: []*StepResult{textStep("ok")}}
	a := newTestAssistant(t, model, nil)

	req := userRequest("hola")
	req.Model = "gpt-4o"
	if _, err := a.Respond(context.Background(), req, nil); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if model.calls[0].ModelName != "gpt-4o" {
		t.Errorf("model name = %q, want gpt-4o", model.calls[0].ModelName)
	}
}
