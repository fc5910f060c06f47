// Package toolkit executes tools an AgentOS run delegates to the client.
//
// A paused run hands back the tool calls it wants executed externally; the
// toolkit resolves each call against registered handlers and produces the
// completed tool list to pass to ContinueRun.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bazelment/agentos-go/protocol"
	"github.com/invopop/jsonschema"
)

// Registry maps tool names to type-safe handlers. Registration is generic;
// execution is type-erased so the registry can resolve arbitrary delegated
// tool calls.
type Registry struct {
	tools []registration
}

// registration stores a single tool's metadata and type-erased handler.
type registration struct {
	name        string
	description string
	schema      json.RawMessage
	invoke      func(context.Context, map[string]interface{}) (string, error)
}

// Definition describes a registered tool to callers that advertise or render
// the available tooling.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make([]registration, 0)}
}

// AddTool registers a type-safe tool handler. The generic type parameter T
// should be a struct with json and jsonschema struct tags; its schema is
// generated from those tags.
//
// Example:
//
//	type ChartParams struct {
//	    Series string `json:"series" jsonschema:"required,description=Series to plot"`
//	}
//
//	reg := toolkit.NewRegistry()
//	toolkit.AddTool(reg, "render_chart", "Render a chart from a data series",
//	    func(ctx context.Context, p ChartParams) (string, error) {
//	        return renderChart(p.Series)
//	    })
func AddTool[T any](
	reg *Registry,
	name, description string,
	handler func(context.Context, T) (string, error),
) *Registry {
	schema := generateSchema[T]()

	// Delegated calls carry arguments as a decoded map; round-trip through
	// JSON to apply the handler's struct tags.
	invoke := func(ctx context.Context, args map[string]interface{}) (string, error) {
		encoded, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("encoding arguments for tool %s: %w", name, err)
		}
		var params T
		if err := json.Unmarshal(encoded, &params); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", name, err)
		}
		return handler(ctx, params)
	}

	reg.tools = append(reg.tools, registration{
		name:        name,
		description: description,
		schema:      schema,
		invoke:      invoke,
	})

	return reg
}

// Definitions lists the registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	result := make([]Definition, len(r.tools))
	for i, tool := range r.tools {
		result[i] = Definition{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: tool.schema,
		}
	}
	return result
}

// Has reports whether a handler is registered under name.
func (r *Registry) Has(name string) bool {
	return r.lookup(name) != nil
}

// Execute resolves each delegated tool call against the registered handlers
// and returns the calls with Result and ToolCallError populated, ready for
// ContinueRun. Handler errors and unknown tool names become errored results
// rather than aborting the batch; the backend decides how to proceed.
func (r *Registry) Execute(ctx context.Context, calls []protocol.ToolCall) []protocol.ToolCall {
	out := make([]protocol.ToolCall, len(calls))
	for i, call := range calls {
		out[i] = r.executeOne(ctx, call)
	}
	return out
}

func (r *Registry) executeOne(ctx context.Context, call protocol.ToolCall) protocol.ToolCall {
	tool := r.lookup(call.ToolName)
	if tool == nil {
		return errored(call, fmt.Sprintf("Unknown tool: %s", call.ToolName))
	}

	result, err := tool.invoke(ctx, call.ToolArgs)
	if err != nil {
		return errored(call, err.Error())
	}

	call.Result = result
	ok := false
	call.ToolCallError = &ok
	return call
}

func (r *Registry) lookup(name string) *registration {
	for i := range r.tools {
		if r.tools[i].name == name {
			return &r.tools[i]
		}
	}
	return nil
}

func errored(call protocol.ToolCall, message string) protocol.ToolCall {
	call.Result = message
	failed := true
	call.ToolCallError = &failed
	return call
}

// generateSchema uses reflection to create a JSON schema from a Go struct
// type, honoring jsonschema struct tags.
func generateSchema[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	bytes, err := json.Marshal(schema)
	if err != nil {
		// This should never happen with valid types
		panic(fmt.Sprintf("failed to generate schema for type %T: %v", zero, err))
	}

	return json.RawMessage(bytes)
}
