package loom

import "context"

// Agent is the invocation capability shared by every layer of the module:
// send a message list plus options, receive a turn of output.
//
// RunStream returns a channel of updates that is closed when the turn is
// complete or an error occurs. Stream failures are delivered in-band as an
// update carrying ErrorContent with FinishError; the error return covers only
// failures to start the stream.
type Agent interface {
	// Run sends a conversation and returns the collected turn.
	Run(ctx context.Context, messages []Message, opts ...RunOption) (*Response, error)

	// RunStream sends a conversation and returns a channel of updates.
	RunStream(ctx context.Context, messages []Message, opts ...RunOption) (<-chan Update, error)
}

// Response represents a collected turn of agent output.
type Response struct {
	// Messages is the turn folded into history form: assistant messages
	// followed by tool-result messages, in production order.
	Messages []Message `json:"messages"`

	// FinishReason is the terminal reason of the turn.
	FinishReason FinishReason `json:"finishReason,omitempty"`

	// ConversationID is the continuation token reported by the producer,
	// if any.
	ConversationID string `json:"conversationId,omitempty"`

	// Usage is total token accounting when reported.
	Usage Usage `json:"usage"`
}

// Text returns the concatenated assistant text of the response.
func (r *Response) Text() string {
	var s string
	for _, m := range r.Messages {
		if m.Role == RoleAssistant {
			s += m.Content
		}
	}
	return s
}

// PendingToolCalls returns tool calls from the final assistant message that
// have no matching result in the response. These are the calls the caller is
// expected to execute when FinishReason is FinishToolCalls.
func (r *Response) PendingToolCalls() []ToolCall {
	resolved := make(map[string]bool)
	for _, m := range r.Messages {
		for _, tr := range m.ToolResults {
			resolved[tr.ToolCallID] = true
		}
	}
	var pending []ToolCall
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if len(r.Messages[i].ToolCalls) == 0 {
			continue
		}
		for _, tc := range r.Messages[i].ToolCalls {
			if !resolved[tc.ID] {
				pending = append(pending, tc)
			}
		}
		break
	}
	return pending
}

// CollectResponse drains an update stream into a Response. An update carrying
// ErrorContent terminates collection and is returned as the error.
func CollectResponse(updates <-chan Update) (*Response, error) {
	var all []Update
	resp := &Response{}

	for u := range updates {
		all = append(all, u)
		if u.FinishReason != FinishNone {
			resp.FinishReason = u.FinishReason
		}
		if u.ConversationID != "" {
			resp.ConversationID = u.ConversationID
		}
		if u.Usage != nil {
			resp.Usage.InputTokens += u.Usage.InputTokens
			resp.Usage.OutputTokens += u.Usage.OutputTokens
		}
	}

	resp.Messages = MessagesFromUpdates(all)

	for _, u := range all {
		for _, c := range u.Contents {
			if e, ok := c.(ErrorContent); ok {
				return resp, e
			}
		}
	}
	return resp, nil
}
