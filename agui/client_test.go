package agui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// scriptServer answers each run request with a fixed event sequence and
// records the decoded request bodies.
type scriptServer struct {
	t      *testing.T
	script func(input *RunAgentInput) []events.Event
	inputs []*RunAgentInput
}

func (s *scriptServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input RunAgentInput
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&input))
	s.inputs = append(s.inputs, &input)

	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, e := range s.script(&input) {
		require.NoError(s.t, WriteEvent(w, flusher, e))
	}
}

func userMessage(text string) loom.Message {
	return loom.Message{Role: loom.RoleUser, Content: text}
}

func TestClientRunCollectsText(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewTextMessageStartEvent("msg_1", events.WithRole("assistant")),
			events.NewTextMessageContentEvent("msg_1", "Hello "),
			events.NewTextMessageContentEvent("msg_1", "there."),
			events.NewTextMessageEndEvent("msg_1"),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	resp, err := c.Run(context.Background(), []loom.Message{userMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", resp.Text())
	assert.Equal(t, loom.FinishStop, resp.FinishReason)

	require.Len(t, srv.inputs, 1)
	assert.Contains(t, srv.inputs[0].ThreadID, "thread_")
	assert.Equal(t, srv.inputs[0].ThreadID, c.ThreadID())
}

func TestClientStripsContinuationID(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent("thread_srv", input.RunID),
			events.NewTextMessageStartEvent("msg_1"),
			events.NewTextMessageContentEvent("msg_1", "hi"),
			events.NewTextMessageEndEvent("msg_1"),
			events.NewRunFinishedEvent("thread_srv", input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	updates, err := c.RunStream(context.Background(), []loom.Message{userMessage("hi")})
	require.NoError(t, err)

	for u := range updates {
		assert.Empty(t, u.ConversationID)
	}
	// The server-assigned id is still captured.
	assert.Equal(t, "thread_srv", c.ThreadID())
}

func TestClientThreadContinuityAcrossTurns(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		if len(input.Messages) == 1 {
			// Turn 1: request a frontend tool.
			return []events.Event{
				events.NewRunStartedEvent("thread_srv", input.RunID),
				events.NewToolCallStartEvent("c1", "pick_color", events.WithParentMessageID("msg_1")),
				events.NewToolCallArgsEvent("c1", `{}`),
				events.NewToolCallEndEvent("c1"),
				events.NewRunFinishedEvent("thread_srv", input.RunID),
			}
		}
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewTextMessageStartEvent("msg_2"),
			events.NewTextMessageContentEvent("msg_2", "blue it is"),
			events.NewTextMessageEndEvent("msg_2"),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	history := []loom.Message{userMessage("pick a color")}

	updates, err := c.RunStream(context.Background(), history)
	require.NoError(t, err)
	turn1 := loom.Collect(updates)

	// The pending call carries the server's thread id on its side channel.
	folded := loom.MessagesFromUpdates(turn1)
	require.NotEmpty(t, folded)
	var stamped string
	for _, m := range folded {
		for _, tc := range m.ToolCalls {
			stamped = tc.ThreadID
		}
	}
	assert.Equal(t, "thread_srv", stamped)

	// Turn 2 rebuilds history the way a tool-running loop would.
	history = append(history, folded...)
	history = append(history, loom.NewToolResultMessage(loom.ToolResult{ToolCallID: "c1", Content: "blue"}))

	resp, err := c.Run(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "blue it is", resp.Text())

	require.Len(t, srv.inputs, 2)
	assert.Equal(t, "thread_srv", srv.inputs[1].ThreadID)
	// Full history travels on the wire, not just the newest message.
	assert.GreaterOrEqual(t, len(srv.inputs[1].Messages), 3)
}

func TestClientStateRoundTrip(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	messages := []loom.Message{
		userMessage("hi"),
		{Role: loom.RoleUser, Parts: []loom.ContentPart{
			loom.NewDataPart(map[string]int{"count": 3}),
		}},
	}

	_, err := c.Run(context.Background(), messages)
	require.NoError(t, err)

	require.Len(t, srv.inputs, 1)
	assert.JSONEq(t, `{"count":3}`, string(srv.inputs[0].State))
	// The carrier message held nothing else, so it is dropped entirely.
	require.Len(t, srv.inputs[0].Messages, 1)
	assert.Equal(t, "hi", *srv.inputs[0].Messages[0].Content)
}

func TestClientStateKeepsNonEmptyMessage(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	messages := []loom.Message{{
		Role:    loom.RoleUser,
		Content: "count up",
		Parts:   []loom.ContentPart{loom.NewDataPart(json.RawMessage(`{"count":3}`))},
	}}

	_, err := c.Run(context.Background(), messages)
	require.NoError(t, err)

	require.Len(t, srv.inputs, 1)
	assert.JSONEq(t, `{"count":3}`, string(srv.inputs[0].State))
	require.Len(t, srv.inputs[0].Messages, 1)
	assert.Equal(t, "count up", *srv.inputs[0].Messages[0].Content)
}

func TestClientUnwrapsServerTools(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewToolCallStartEvent("s1", "serverTool", events.WithParentMessageID("msg_1")),
			events.NewToolCallArgsEvent("s1", `{}`),
			events.NewToolCallEndEvent("s1"),
			events.NewToolCallResultEvent("msg_2", "s1", "done"),
			events.NewTextMessageStartEvent("msg_3"),
			events.NewTextMessageContentEvent("msg_3", "all set"),
			events.NewTextMessageEndEvent("msg_3"),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	resp, err := c.Run(context.Background(), []loom.Message{userMessage("go")})
	require.NoError(t, err)

	// The resolved call needs no local execution and surfaces in history as
	// an ordinary completed call.
	assert.Empty(t, resp.PendingToolCalls())
	assert.Equal(t, loom.FinishStop, resp.FinishReason)

	var sawCall, sawResult bool
	for _, m := range resp.Messages {
		for _, tc := range m.ToolCalls {
			if tc.ID == "s1" {
				sawCall = true
			}
		}
		for _, r := range m.ToolResults {
			if r.ToolCallID == "s1" {
				sawResult = true
			}
		}
	}
	assert.True(t, sawCall)
	assert.True(t, sawResult)
}

func TestClientTransportFailure(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewTextMessageStartEvent("msg_1"),
			events.NewTextMessageContentEvent("msg_1", "partial"),
			// Connection ends with no terminal event.
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Run(context.Background(), []loom.Message{userMessage("hi")})
	require.Error(t, err)

	var ec loom.ErrorContent
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, CodeTransportFailure, ec.Code)
}

func TestClientRejectsEmptyInput(t *testing.T) {
	c := NewClient("http://localhost:0")
	_, err := c.RunStream(context.Background(), nil)
	assert.ErrorIs(t, err, loom.ErrEmptyInput)
}

func TestClientSurfacesBadRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed request: no messages", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Run(context.Background(), []loom.Message{userMessage("hi")})
	var mr *MalformedRequestError
	require.ErrorAs(t, err, &mr)
}

func TestClientDeclaresTools(t *testing.T) {
	srv := &scriptServer{t: t, script: func(input *RunAgentInput) []events.Event {
		return []events.Event{
			events.NewRunStartedEvent(input.ThreadID, input.RunID),
			events.NewRunFinishedEvent(input.ThreadID, input.RunID),
		}
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Run(context.Background(), []loom.Message{userMessage("hi")},
		loom.WithTools([]loom.Tool{{Name: "pick_color", Description: "ask the user"}}))
	require.NoError(t, err)

	require.Len(t, srv.inputs, 1)
	require.Len(t, srv.inputs[0].Tools, 1)
	assert.Equal(t, "pick_color", srv.inputs[0].Tools[0].Name)
}
