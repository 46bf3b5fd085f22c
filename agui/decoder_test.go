package agui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

func sseBytes(t *testing.T, evs []events.Event) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, e := range evs {
		require.NoError(t, WriteEvent(&buf, nil, e))
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte) ([]loom.Update, *Decoder) {
	t.Helper()
	dec := NewDecoder(bytes.NewReader(data))
	var updates []loom.Update
	for u := range dec.Updates(context.Background()) {
		updates = append(updates, u)
	}
	return updates, dec
}

func TestDecoderTextRun(t *testing.T) {
	data := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewTextMessageStartEvent("msg_1", events.WithRole("assistant")),
		events.NewTextMessageContentEvent("msg_1", "Hel"),
		events.NewTextMessageContentEvent("msg_1", "lo"),
		events.NewTextMessageEndEvent("msg_1"),
		events.NewRunFinishedEvent("thread_1", "run_1"),
	})

	updates, dec := decodeAll(t, data)
	require.NoError(t, dec.Err())
	assert.Equal(t, "thread_1", dec.ThreadID())

	require.Len(t, updates, 4)
	assert.Equal(t, "thread_1", updates[0].ConversationID)
	assert.Equal(t, "run_1", updates[0].ResponseID)
	assert.Equal(t, "Hel", updates[1].Text())
	assert.Equal(t, "msg_1", updates[1].MessageID)
	assert.Equal(t, loom.RoleAssistant, updates[1].Role)
	assert.Equal(t, "lo", updates[2].Text())
	assert.Equal(t, loom.FinishStop, updates[3].FinishReason)
}

func TestDecoderPendingClientCall(t *testing.T) {
	data := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewToolCallStartEvent("call_1", "pick_color", events.WithParentMessageID("msg_1")),
		events.NewToolCallArgsEvent("call_1", `{"n":`),
		events.NewToolCallArgsEvent("call_1", `3}`),
		events.NewToolCallEndEvent("call_1"),
		events.NewRunFinishedEvent("thread_1", "run_1"),
	})

	updates, dec := decodeAll(t, data)
	require.NoError(t, dec.Err())
	require.Len(t, updates, 3)

	tc, ok := updates[1].Contents[0].(loom.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "call_1", tc.Call.ID)
	assert.Equal(t, "pick_color", tc.Call.Name)
	assert.Equal(t, `{"n":3}`, tc.Call.Arguments)
	assert.Equal(t, "msg_1", updates[1].MessageID)

	// A call without a result is pending, so the run ends requesting tools.
	assert.Equal(t, loom.FinishToolCalls, updates[2].FinishReason)
}

func TestDecoderResolvedCallBecomesServerTool(t *testing.T) {
	data := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewToolCallStartEvent("call_1", "lookup", events.WithParentMessageID("msg_1")),
		events.NewToolCallArgsEvent("call_1", `{"q":"go"}`),
		events.NewToolCallEndEvent("call_1"),
		events.NewToolCallResultEvent("msg_2", "call_1", "found"),
		events.NewTextMessageStartEvent("msg_3", events.WithRole("assistant")),
		events.NewTextMessageContentEvent("msg_3", "Found it."),
		events.NewTextMessageEndEvent("msg_3"),
		events.NewRunFinishedEvent("thread_1", "run_1"),
	})

	updates, dec := decodeAll(t, data)
	require.NoError(t, dec.Err())
	require.Len(t, updates, 4)

	st, ok := updates[1].Contents[0].(loom.ServerToolContent)
	require.True(t, ok)
	assert.Equal(t, "lookup", st.Call.Name)
	assert.Equal(t, `{"q":"go"}`, st.Call.Arguments)
	assert.Equal(t, "found", st.Result.Content)

	// Resolved calls are not pending, so the run ends cleanly.
	assert.Equal(t, loom.FinishStop, updates[3].FinishReason)
}

func TestDecoderRunError(t *testing.T) {
	data := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewRunErrorEvent("model overloaded", events.WithErrorCode("overloaded")),
	})

	updates, dec := decodeAll(t, data)
	// RUN_ERROR is a clean in-band failure, not a broken stream.
	require.NoError(t, dec.Err())
	require.Len(t, updates, 2)

	assert.Equal(t, loom.FinishError, updates[1].FinishReason)
	ec, ok := updates[1].Contents[0].(loom.ErrorContent)
	require.True(t, ok)
	assert.Equal(t, "model overloaded", ec.Message)
	assert.Equal(t, "overloaded", ec.Code)
}

func TestDecoderTruncatedStream(t *testing.T) {
	full := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewTextMessageStartEvent("msg_1"),
		events.NewTextMessageContentEvent("msg_1", "Hel"),
	})

	updates, dec := decodeAll(t, full)
	require.Len(t, updates, 3)

	last := updates[len(updates)-1]
	assert.Equal(t, loom.FinishError, last.FinishReason)
	ec, ok := last.Contents[0].(loom.ErrorContent)
	require.True(t, ok)
	assert.Equal(t, CodeTransportFailure, ec.Code)

	var te *TransportError
	require.ErrorAs(t, dec.Err(), &te)
}

func TestDecoderProtocolViolation(t *testing.T) {
	data := sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewTextMessageContentEvent("msg_1", "orphan delta"),
	})

	updates, dec := decodeAll(t, data)
	last := updates[len(updates)-1]
	assert.Equal(t, loom.FinishError, last.FinishReason)
	ec, ok := last.Contents[0].(loom.ErrorContent)
	require.True(t, ok)
	assert.Equal(t, CodeProtocolViolation, ec.Code)

	var pe *ProtocolError
	require.ErrorAs(t, dec.Err(), &pe)
}

func TestDecoderIgnoresCommentsAndBlankLines(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(": keep-alive\n\n")
	buf.Write(sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
	}))
	buf.WriteString(": another ping\n")
	buf.Write(sseBytes(t, []events.Event{
		events.NewRunFinishedEvent("thread_1", "run_1"),
	}))

	updates, dec := decodeAll(t, buf.Bytes())
	require.NoError(t, dec.Err())
	require.Len(t, updates, 2)
	assert.Equal(t, loom.FinishStop, updates[1].FinishReason)
}

func TestDecoderSkipsUnknownEventTypes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(sseBytes(t, []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
	}))
	// A newer server may interleave event types this client has no decoder
	// for; the frame is skipped, not fatal.
	buf.WriteString("event: STATE_SNAPSHOT\ndata: {\"type\":\"STATE_SNAPSHOT\",\"snapshot\":{\"turns\":1}}\n\n")
	buf.Write(sseBytes(t, []events.Event{
		events.NewTextMessageStartEvent("msg_1", events.WithRole("assistant")),
		events.NewTextMessageContentEvent("msg_1", "Hello"),
		events.NewTextMessageEndEvent("msg_1"),
		events.NewRunFinishedEvent("thread_1", "run_1"),
	}))

	updates, dec := decodeAll(t, buf.Bytes())
	require.NoError(t, dec.Err())
	assert.Equal(t, "Hello", collectText(updates))
	assert.Equal(t, loom.FinishStop, updates[len(updates)-1].FinishReason)
}

func TestDecoderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dec := NewDecoder(strings.NewReader(""))
	for range dec.Updates(ctx) {
	}
	assert.ErrorIs(t, dec.Err(), context.Canceled)
}

// Encoding a turn and decoding the result must reproduce the turn's content
// and ordering; only envelope bookkeeping may differ.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []loom.Update{
		{MessageID: "msg_1", Role: loom.RoleAssistant, Contents: []loom.Content{loom.TextContent{Text: "Let me check. "}}},
		{MessageID: "msg_1", Role: loom.RoleAssistant, Contents: []loom.Content{loom.TextContent{Text: "One moment."}}},
		{MessageID: "msg_1", Contents: []loom.Content{
			loom.ToolCallContent{Call: loom.ToolCall{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Oslo"}`}},
		}},
		{FinishReason: loom.FinishToolCalls},
	}

	enc := NewEncoder("thread_1", "run_1")
	wire := encodeTurn(t, enc, original)
	require.NoError(t, events.Check(wire))

	decoded, dec := decodeAll(t, sseBytes(t, wire))
	require.NoError(t, dec.Err())

	assert.Equal(t, "Let me check. One moment.", collectText(decoded))
	calls := loom.MessagesFromUpdates(decoded)
	require.NotEmpty(t, calls)

	var got []loom.ToolCall
	for _, m := range calls {
		got = append(got, m.ToolCalls...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "call_1", got[0].ID)
	assert.Equal(t, "get_weather", got[0].Name)
	assert.Equal(t, `{"city":"Oslo"}`, got[0].Arguments)

	last := decoded[len(decoded)-1]
	assert.Equal(t, loom.FinishToolCalls, last.FinishReason)
}

// A tool call interrupting a message closes the text envelope; the text
// after it resumes under the same message id, and the wire sequence must
// still verify and decode.
func TestRoundTripTextResumesAfterServerTool(t *testing.T) {
	original := []loom.Update{
		{MessageID: "msg_1", Role: loom.RoleAssistant, Contents: []loom.Content{
			loom.TextContent{Text: "before "},
			loom.ServerToolContent{
				Call:   loom.ToolCall{ID: "call_1", Name: "lookup", Arguments: `{"q":"go"}`},
				Result: loom.ToolResult{ToolCallID: "call_1", Content: "found"},
			},
			loom.TextContent{Text: "after"},
		}},
		{FinishReason: loom.FinishStop},
	}

	enc := NewEncoder("thread_1", "run_1")
	wire := encodeTurn(t, enc, original)
	require.NoError(t, events.Check(wire))

	decoded, dec := decodeAll(t, sseBytes(t, wire))
	require.NoError(t, dec.Err())

	assert.Equal(t, "before after", collectText(decoded))
	var st loom.ServerToolContent
	var found bool
	for _, u := range decoded {
		for _, c := range u.Contents {
			if s, ok := c.(loom.ServerToolContent); ok {
				st, found = s, true
			}
		}
	}
	require.True(t, found)
	assert.Equal(t, "lookup", st.Call.Name)
	assert.Equal(t, "found", st.Result.Content)
	assert.Equal(t, loom.FinishStop, decoded[len(decoded)-1].FinishReason)
}

// Re-encoding a decoded stream with the same ids reproduces the original
// event sequence.
func TestEncodeDecodeIdempotence(t *testing.T) {
	wire := []events.Event{
		events.NewRunStartedEvent("thread_1", "run_1"),
		events.NewTextMessageStartEvent("msg_1", events.WithRole("assistant")),
		events.NewTextMessageContentEvent("msg_1", "Hello"),
		events.NewTextMessageEndEvent("msg_1"),
		events.NewToolCallStartEvent("call_1", "get_weather", events.WithParentMessageID("msg_1")),
		events.NewToolCallArgsEvent("call_1", `{"city":"Oslo"}`),
		events.NewToolCallEndEvent("call_1"),
		events.NewRunFinishedEvent("thread_1", "run_1"),
	}
	require.NoError(t, events.Check(wire))

	decoded, dec := decodeAll(t, sseBytes(t, wire))
	require.NoError(t, dec.Err())

	enc := NewEncoder("thread_1", "run_1")
	reencoded := []events.Event{enc.Start()}
	for _, u := range decoded[1:] {
		reencoded = append(reencoded, enc.Encode(u)...)
		if u.FinishReason != loom.FinishNone && !enc.Done() {
			reencoded = append(reencoded, enc.Finish()...)
		}
	}

	require.Equal(t, types(wire), types(reencoded))
	for i := range wire {
		assertSameEvent(t, wire[i], reencoded[i])
	}
}

func collectText(updates []loom.Update) string {
	var s string
	for _, u := range updates {
		s += u.Text()
	}
	return s
}

// assertSameEvent compares the protocol-relevant fields of two events,
// ignoring timestamps.
func assertSameEvent(t *testing.T, want, got events.Event) {
	t.Helper()
	switch want := want.(type) {
	case *events.RunStartedEvent:
		g := got.(*events.RunStartedEvent)
		assert.Equal(t, want.ThreadID, g.ThreadID)
		assert.Equal(t, want.RunID, g.RunID)
	case *events.TextMessageStartEvent:
		g := got.(*events.TextMessageStartEvent)
		assert.Equal(t, want.MessageID, g.MessageID)
		assert.Equal(t, want.Role, g.Role)
	case *events.TextMessageContentEvent:
		g := got.(*events.TextMessageContentEvent)
		assert.Equal(t, want.MessageID, g.MessageID)
		assert.Equal(t, want.Delta, g.Delta)
	case *events.TextMessageEndEvent:
		g := got.(*events.TextMessageEndEvent)
		assert.Equal(t, want.MessageID, g.MessageID)
	case *events.ToolCallStartEvent:
		g := got.(*events.ToolCallStartEvent)
		assert.Equal(t, want.ToolCallID, g.ToolCallID)
		assert.Equal(t, want.ToolCallName, g.ToolCallName)
		assert.Equal(t, want.ParentMessageID, g.ParentMessageID)
	case *events.ToolCallArgsEvent:
		g := got.(*events.ToolCallArgsEvent)
		assert.Equal(t, want.ToolCallID, g.ToolCallID)
		assert.Equal(t, want.Delta, g.Delta)
	case *events.ToolCallEndEvent:
		g := got.(*events.ToolCallEndEvent)
		assert.Equal(t, want.ToolCallID, g.ToolCallID)
	case *events.RunFinishedEvent:
		g := got.(*events.RunFinishedEvent)
		assert.Equal(t, want.ThreadID, g.ThreadID)
		assert.Equal(t, want.RunID, g.RunID)
	default:
		t.Fatalf("unhandled event type %T", want)
	}
}
