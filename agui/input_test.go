package agui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

func strptr(s string) *string { return &s }

func TestPrepareGeneratesIDs(t *testing.T) {
	input := &RunAgentInput{
		Messages: []events.Message{{Role: "user", Content: strptr("hi")}},
	}

	p, err := input.Prepare()
	require.NoError(t, err)
	assert.Contains(t, p.ThreadID, "thread_")
	assert.Contains(t, p.RunID, "run_")
	require.Len(t, p.Messages, 1)
	assert.Equal(t, loom.RoleUser, p.Messages[0].Role)
	assert.Equal(t, "hi", p.Messages[0].Content)
}

func TestPrepareKeepsProvidedIDs(t *testing.T) {
	input := &RunAgentInput{
		ThreadID: "thread_abc",
		RunID:    "run_abc",
		Messages: []events.Message{{Role: "user", Content: strptr("hi")}},
	}

	p, err := input.Prepare()
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", p.ThreadID)
	assert.Equal(t, "run_abc", p.RunID)
}

func TestPrepareRejectsEmptyMessages(t *testing.T) {
	_, err := (&RunAgentInput{}).Prepare()
	var mr *MalformedRequestError
	require.ErrorAs(t, err, &mr)
}

func TestPrepareRejectsUnknownRole(t *testing.T) {
	input := &RunAgentInput{
		Messages: []events.Message{{Role: "narrator", Content: strptr("hi")}},
	}
	_, err := input.Prepare()
	var mr *MalformedRequestError
	require.ErrorAs(t, err, &mr)
}

func TestPrepareRejectsUnnamedTool(t *testing.T) {
	input := &RunAgentInput{
		Messages: []events.Message{{Role: "user", Content: strptr("hi")}},
		Tools:    []Tool{{Description: "no name"}},
	}
	_, err := input.Prepare()
	var mr *MalformedRequestError
	require.ErrorAs(t, err, &mr)
}

func TestPrepareConvertsTools(t *testing.T) {
	input := &RunAgentInput{
		Messages: []events.Message{{Role: "user", Content: strptr("hi")}},
		Tools: []Tool{{
			Name:        "pick_color",
			Description: "Ask the user to pick a color",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		}},
	}

	p, err := input.Prepare()
	require.NoError(t, err)
	require.Len(t, p.Tools, 1)
	assert.Equal(t, "pick_color", p.Tools[0].Name)
	assert.Equal(t, []string{"pick_color"}, p.ToolNames)
}

func TestPreparedRunOptions(t *testing.T) {
	input := &RunAgentInput{
		ThreadID: "thread_1",
		RunID:    "run_1",
		Messages: []events.Message{{Role: "user", Content: strptr("hi")}},
		Tools:    []Tool{{Name: "pick_color"}},
		State:    json.RawMessage(`{"count":3}`),
		Context:  []ContextItem{{Description: "user name", Value: "Ada"}},
	}

	p, err := input.Prepare()
	require.NoError(t, err)

	ro := loom.ApplyRunOptions(p.RunOptions()...)
	assert.Equal(t, "thread_1", ro.Extra[ExtraKeyThreadID])
	assert.Equal(t, "run_1", ro.Extra[ExtraKeyRunID])
	assert.Equal(t, json.RawMessage(`{"count":3}`), ro.Extra[ExtraKeyState])
	assert.Equal(t, p.Context, ro.Extra[ExtraKeyContext])
	require.Len(t, ro.Tools, 1)
	assert.Equal(t, "pick_color", ro.Tools[0].Name)
}

func TestDecodeState(t *testing.T) {
	type counter struct {
		Count int `json:"count"`
	}

	got, err := DecodeState[counter](json.RawMessage(`{"count":3}`))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)

	zero, err := DecodeState[counter](nil)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Count)

	_, err = DecodeState[counter](json.RawMessage(`{`))
	require.Error(t, err)
}

func TestToMessagesToolHistory(t *testing.T) {
	wire := []events.Message{
		{ID: "m1", Role: "user", Content: strptr("weather in Oslo?")},
		{ID: "m2", Role: "assistant", ToolCalls: []events.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: events.Function{
				Name:      "get_weather",
				Arguments: `{"city":"Oslo"}`,
			},
		}}},
		{ID: "m3", Role: "tool", Content: strptr("sunny"), ToolCallID: strptr("call_1")},
	}

	messages, err := ToMessages(wire)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	require.Len(t, messages[1].ToolCalls, 1)
	assert.Equal(t, "get_weather", messages[1].ToolCalls[0].Name)

	require.Len(t, messages[2].ToolResults, 1)
	assert.Equal(t, "call_1", messages[2].ToolResults[0].ToolCallID)
	assert.Equal(t, "sunny", messages[2].ToolResults[0].Content)
}

func TestToMessagesRejectsToolWithoutCallID(t *testing.T) {
	_, err := ToMessages([]events.Message{{Role: "tool", Content: strptr("x")}})
	var mr *MalformedRequestError
	require.ErrorAs(t, err, &mr)
}

func TestFromMessagesFansOutToolResults(t *testing.T) {
	wire := FromMessages([]loom.Message{
		{Role: loom.RoleAssistant, ToolCalls: []loom.ToolCall{
			{ID: "call_1", Name: "a", Arguments: `{}`},
			{ID: "call_2", Name: "b", Arguments: `{}`},
		}},
		loom.NewToolResultMessage(
			loom.ToolResult{ToolCallID: "call_1", Content: "one"},
			loom.ToolResult{ToolCallID: "call_2", Content: "two"},
		),
	})

	require.Len(t, wire, 3)
	assert.Len(t, wire[0].ToolCalls, 2)
	assert.Equal(t, "tool", wire[1].Role)
	assert.Equal(t, "call_1", *wire[1].ToolCallID)
	assert.Equal(t, "one", *wire[1].Content)
	assert.Equal(t, "call_2", *wire[2].ToolCallID)
}

func TestMessageConversionRoundTrip(t *testing.T) {
	original := []loom.Message{
		{ID: "m1", Role: loom.RoleSystem, Content: "be brief"},
		{ID: "m2", Role: loom.RoleUser, Content: "hi"},
		{ID: "m3", Role: loom.RoleAssistant, Content: "hello"},
	}

	back, err := ToMessages(FromMessages(original))
	require.NoError(t, err)
	assert.Equal(t, original, back)
}
