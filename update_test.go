package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateText(t *testing.T) {
	u := Update{Contents: []Content{
		TextContent{Text: "hello "},
		ToolCallContent{Call: ToolCall{ID: "tc_1", Name: "lookup"}},
		TextContent{Text: "world"},
	}}
	assert.Equal(t, "hello world", u.Text())
}

func TestMessagesFromUpdatesTextCoalescing(t *testing.T) {
	updates := []Update{
		{MessageID: "msg_1", Contents: []Content{TextContent{Text: "Hel"}}},
		{MessageID: "msg_1", Contents: []Content{TextContent{Text: "lo"}}},
	}

	msgs := MessagesFromUpdates(updates)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "msg_1", msgs[0].ID)
	assert.Equal(t, "Hello", msgs[0].Content)
}

func TestMessagesFromUpdatesNewMessageID(t *testing.T) {
	updates := []Update{
		{MessageID: "msg_1", Contents: []Content{TextContent{Text: "first"}}},
		{MessageID: "msg_2", Contents: []Content{TextContent{Text: "second"}}},
	}

	msgs := MessagesFromUpdates(updates)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestMessagesFromUpdatesToolCallFragments(t *testing.T) {
	updates := []Update{
		{MessageID: "msg_1", Contents: []Content{
			TextContent{Text: "checking"},
			ToolCallContent{Call: ToolCall{ID: "tc_1", Name: "weather", Arguments: `{"city":`}},
		}},
		{MessageID: "msg_1", Contents: []Content{
			ToolCallContent{Call: ToolCall{ID: "tc_1", Arguments: `"Oslo"}`}},
		}},
		{Contents: []Content{
			ToolResultContent{Result: ToolResult{ToolCallID: "tc_1", Content: "rainy"}},
		}},
	}

	msgs := MessagesFromUpdates(updates)
	require.Len(t, msgs, 2)

	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "checking", msgs[0].Content)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, `{"city":"Oslo"}`, msgs[0].ToolCalls[0].Arguments)

	assert.Equal(t, RoleTool, msgs[1].Role)
	require.Len(t, msgs[1].ToolResults, 1)
	assert.Equal(t, "tc_1", msgs[1].ToolResults[0].ToolCallID)
	assert.Equal(t, "rainy", msgs[1].ToolResults[0].Content)
}

func TestMessagesFromUpdatesServerToolUnwrap(t *testing.T) {
	updates := []Update{
		{MessageID: "msg_1", Contents: []Content{
			ServerToolContent{
				Call:   ToolCall{ID: "tc_9", Name: "search", Arguments: `{"q":"go"}`},
				Result: ToolResult{ToolCallID: "tc_9", Content: "found"},
			},
		}},
	}

	msgs := MessagesFromUpdates(updates)
	require.Len(t, msgs, 2)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, "search", msgs[0].ToolCalls[0].Name)
	require.Len(t, msgs[1].ToolResults, 1)
	assert.Equal(t, "found", msgs[1].ToolResults[0].Content)
}

func TestMessagesFromUpdatesSkipsEmptyTurn(t *testing.T) {
	updates := []Update{
		{MessageID: "msg_1", FinishReason: FinishStop},
	}
	assert.Empty(t, MessagesFromUpdates(updates))
}

func TestCollectResponse(t *testing.T) {
	ch := make(chan Update, 4)
	ch <- Update{MessageID: "msg_1", Contents: []Content{TextContent{Text: "hi"}}}
	ch <- Update{
		MessageID:      "msg_1",
		ConversationID: "conv_1",
		FinishReason:   FinishStop,
		Usage:          &Usage{InputTokens: 10, OutputTokens: 5},
	}
	close(ch)

	resp, err := CollectResponse(ch)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text())
	assert.Equal(t, FinishStop, resp.FinishReason)
	assert.Equal(t, "conv_1", resp.ConversationID)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 5, resp.Usage.OutputTokens)
}

func TestCollectResponseError(t *testing.T) {
	ch := make(chan Update, 2)
	ch <- Update{Contents: []Content{ErrorContent{Message: "backend down", Code: "upstream"}}, FinishReason: FinishError}
	close(ch)

	resp, err := CollectResponse(ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.Equal(t, FinishError, resp.FinishReason)
}

func TestResponsePendingToolCalls(t *testing.T) {
	resp := &Response{Messages: []Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "tc_1", Name: "resolved"},
			{ID: "tc_2", Name: "pending"},
		}},
		{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "tc_1", Content: "done"}}},
	}}

	pending := resp.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "tc_2", pending[0].ID)
}
