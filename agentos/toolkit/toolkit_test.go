package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/agentos-go/protocol"
)

type EchoParams struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

type SumParams struct {
	A float64 `json:"a" jsonschema:"required,description=First number"`
	B float64 `json:"b" jsonschema:"required,description=Second number"`
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "echo", "Echo back the input text",
		func(ctx context.Context, p EchoParams) (string, error) {
			return p.Text, nil
		})

	defs := reg.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "Echo back the input text", defs[0].Description)

	var schema map[string]interface{}
	err := json.Unmarshal(defs[0].InputSchema, &schema)
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "text")
}

func TestRegistry_ExecuteDelegatedCalls(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "sum", "Add two numbers",
		func(ctx context.Context, p SumParams) (string, error) {
			return fmt.Sprintf("%g", p.A+p.B), nil
		})

	calls := []protocol.ToolCall{{
		ToolCallID: "t1",
		ToolName:   "sum",
		ToolArgs:   map[string]interface{}{"a": 17.0, "b": 25.0},
	}}

	done := reg.Execute(context.Background(), calls)
	require.Len(t, done, 1)
	assert.Equal(t, "42", done[0].Result)
	require.NotNil(t, done[0].ToolCallError)
	assert.False(t, *done[0].ToolCallError)
	assert.Equal(t, "t1", done[0].ToolCallID)
}

func TestRegistry_HandlerErrorBecomesErroredResult(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "failing", "Always fails",
		func(ctx context.Context, p EchoParams) (string, error) {
			return "", fmt.Errorf("intentional error: %s", p.Text)
		})

	done := reg.Execute(context.Background(), []protocol.ToolCall{{
		ToolCallID: "t1",
		ToolName:   "failing",
		ToolArgs:   map[string]interface{}{"text": "test"},
	}})

	require.Len(t, done, 1)
	require.NotNil(t, done[0].ToolCallError)
	assert.True(t, *done[0].ToolCallError)
	assert.Contains(t, done[0].Result, "intentional error: test")
}

func TestRegistry_UnknownToolDoesNotAbortBatch(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "echo", "Echo",
		func(ctx context.Context, p EchoParams) (string, error) {
			return p.Text, nil
		})

	done := reg.Execute(context.Background(), []protocol.ToolCall{
		{ToolCallID: "t1", ToolName: "nonexistent"},
		{ToolCallID: "t2", ToolName: "echo", ToolArgs: map[string]interface{}{"text": "hi"}},
	})

	require.Len(t, done, 2)
	assert.True(t, *done[0].ToolCallError)
	assert.Contains(t, done[0].Result, "Unknown tool: nonexistent")
	assert.False(t, *done[1].ToolCallError)
	assert.Equal(t, "hi", done[1].Result)
}

func TestRegistry_InvalidArgumentTypes(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "sum", "Add two numbers",
		func(ctx context.Context, p SumParams) (string, error) {
			return fmt.Sprintf("%g", p.A+p.B), nil
		})

	done := reg.Execute(context.Background(), []protocol.ToolCall{{
		ToolName: "sum",
		ToolArgs: map[string]interface{}{"a": "not a number", "b": 5.0},
	}})

	require.Len(t, done, 1)
	assert.True(t, *done[0].ToolCallError)
	assert.Contains(t, done[0].Result, "invalid arguments")
}

func TestRegistry_NilArgsInvokeWithZeroValues(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "echo", "Echo",
		func(ctx context.Context, p EchoParams) (string, error) {
			return "got: " + p.Text, nil
		})

	done := reg.Execute(context.Background(), []protocol.ToolCall{{
		ToolName: "echo",
	}})

	require.Len(t, done, 1)
	assert.False(t, *done[0].ToolCallError)
	assert.Equal(t, "got: ", done[0].Result)
}

func TestRegistry_ContextReachesHandler(t *testing.T) {
	reg := NewRegistry()
	AddTool(reg, "slow", "Context-aware tool",
		func(ctx context.Context, p EchoParams) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
				return "completed", nil
			}
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := reg.Execute(ctx, []protocol.ToolCall{{ToolName: "slow"}})
	require.Len(t, done, 1)
	assert.True(t, *done[0].ToolCallError)
	assert.Contains(t, done[0].Result, "context canceled")
}

func TestRegistry_Has(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Has("echo"))

	AddTool(reg, "echo", "Echo",
		func(ctx context.Context, p EchoParams) (string, error) {
			return p.Text, nil
		})
	assert.True(t, reg.Has("echo"))
}
