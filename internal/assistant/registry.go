package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/salesdesk/salesdesk/internal/log"
)

// Tool binds a name and description to a typed read operation. Tools
// are constructed once at startup, bound to Genkit for schema
// advertisement, and shared read-only across concurrent requests.
type Tool struct {
	name        string
	description string
	resolved    *jsonschema.Resolved
	run         func(ctx context.Context, input any) (any, error)
	bind        func(g *genkit.Genkit) ai.Tool
	ref         ai.Tool
}

// Name returns the tool's unique identifier.
func (t *Tool) Name() string { return t.name }

// Description returns the description shown to the model.
func (t *Tool) Description() string { return t.description }

// NewTool creates a tool with type-safe argument handling. The
// argument schema is derived from In and used both to advertise the
// tool to the model and to validate arguments before execution.
//
// Type erasure happens internally so tools with different input and
// output types can share one registry. Arguments arrive from the
// model as decoded JSON and are converted to In via a JSON round
// trip, the same adapter Genkit applies to its own tool handlers.
func NewTool[In, Out any](name, description string, fn func(context.Context, In) (Out, error)) (*Tool, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("deriving schema for tool %s: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving schema for tool %s: %w", name, err)
	}

	return &Tool{
		name:        name,
		description: description,
		resolved:    resolved,
		run: func(ctx context.Context, input any) (any, error) {
			var in In
			if input != nil {
				raw, err := json.Marshal(input)
				if err != nil {
					return nil, fmt.Errorf("marshaling arguments: %w", err)
				}
				if err := json.Unmarshal(raw, &in); err != nil {
					return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
				}
			}
			return fn(ctx, in)
		},
		bind: func(g *genkit.Genkit) ai.Tool {
			return genkit.DefineTool(g, name, description,
				func(tc *ai.ToolContext, in In) (Out, error) {
					return fn(tc.Context, in)
				})
		},
	}, nil
}

// ToolResult is the outcome of one requested tool call. Output is
// always JSON-serializable: the tool's payload on success, or a
// structured error the model can react to on failure.
type ToolResult struct {
	Name   string
	Ref    string
	OK     bool
	Output any
}

// Registry holds the fixed tool catalogue and executes requested
// calls. It is immutable after Bind and safe for concurrent use.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	refs   []ai.ToolRef
	logger log.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{tools: make(map[string]*Tool), logger: logger}
}

// Add registers a tool. Duplicate names are rejected.
func (r *Registry) Add(t *Tool) error {
	if _, exists := r.tools[t.name]; exists {
		return fmt.Errorf("tool %s already registered", t.name)
	}
	r.tools[t.name] = t
	r.order = append(r.order, t.name)
	return nil
}

// Bind registers every tool with Genkit so its schema is advertised
// to the model. Must be called once before Refs.
func (r *Registry) Bind(g *genkit.Genkit) {
	refs := make([]ai.ToolRef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		t.ref = t.bind(g)
		refs = append(refs, t.ref)
	}
	r.refs = refs
}

// Refs returns the bound tool references for ai.WithTools.
func (r *Registry) Refs() []ai.ToolRef { return r.refs }

// Names returns the catalogue's tool names in registration order.
func (r *Registry) Names() []string { return r.order }

// Execute runs one requested tool call. Unknown tools, invalid
// arguments, and execution failures all produce a failed ToolResult
// with a structured error payload; they never return a Go error, so a
// single bad call cannot abort the conversation.
func (r *Registry) Execute(ctx context.Context, req *ai.ToolRequest) ToolResult {
	res := ToolResult{Name: req.Name, Ref: req.Ref}

	t, ok := r.tools[req.Name]
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", req.Name)
		res.Output = map[string]any{"error": "tool not found: " + req.Name}
		return res
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	if err := t.resolved.Validate(input); err != nil {
		r.logger.Warn("tool arguments failed validation", "tool", req.Name, "error", err)
		res.Output = map[string]any{"error": "invalid arguments: " + err.Error()}
		return res
	}

	out, err := t.run(ctx, input)
	if err != nil {
		r.logger.Error("tool execution failed", "tool", req.Name, "error", err)
		res.Output = map[string]any{"error": "query failed: " + req.Name}
		return res
	}

	res.OK = true
	res.Output = out
	return res
}

// ExecuteAll runs the step's requested calls concurrently. They are
// read-only and independent, so no ordering is imposed on execution,
// but results are returned in request order because the model
// correlates results positionally.
func (r *Registry) ExecuteAll(ctx context.Context, reqs []*ai.ToolRequest) []ToolResult {
	results := make([]ToolResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *ai.ToolRequest) {
			defer wg.Done()
			results[i] = r.Execute(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results
}
