package loom

// FinishReason indicates why a turn of agent output ended.
type FinishReason string

const (
	// FinishNone marks a non-terminal update.
	FinishNone FinishReason = ""
	// FinishStop marks natural completion of a turn.
	FinishStop FinishReason = "stop"
	// FinishToolCalls marks a turn that ended requesting tool execution.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishError marks a turn that ended with a failure.
	FinishError FinishReason = "error"
)

// Content is one item of streamed agent output. It is a closed tagged union:
// TextContent, ToolCallContent, ToolResultContent, ErrorContent, and
// ServerToolContent implement it.
type Content interface {
	contentKind() string
}

// TextContent is an incremental fragment of assistant text.
type TextContent struct {
	Text string
}

// ToolCallContent is a tool invocation request. Depending on the producer the
// Arguments may be a complete JSON document or an incremental fragment;
// consumers accumulate fragments per call ID.
type ToolCallContent struct {
	Call ToolCall
}

// ToolResultContent is the result of an executed tool call.
type ToolResultContent struct {
	Result ToolResult
}

// ErrorContent models a failure as content, consistent with the update-stream
// abstraction: a well-formed agent failure is an assistant message carrying an
// error item, not a broken stream.
type ErrorContent struct {
	Message string
	Code    string
}

// ServerToolContent is a tool call that was resolved by a remote agent before
// it reached this process, paired with its result. Tool-invoking layers must
// not execute it; [MessagesFromUpdates] unwraps it back into an ordinary
// call/result pair when history is rebuilt.
type ServerToolContent struct {
	Call   ToolCall
	Result ToolResult
}

func (TextContent) contentKind() string       { return "text" }
func (ToolCallContent) contentKind() string   { return "tool_call" }
func (ToolResultContent) contentKind() string { return "tool_result" }
func (ErrorContent) contentKind() string      { return "error" }
func (ServerToolContent) contentKind() string { return "server_tool" }

// Error implements the error interface so an ErrorContent can be returned
// or wrapped directly.
func (e ErrorContent) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Update represents one increment of streamed agent output. Updates are
// immutable once emitted; a full turn is the concatenation of all updates
// until a terminal finish reason.
type Update struct {
	// Role of the message this update belongs to. Defaults to assistant.
	Role Role

	// Contents carries zero or more content items in arrival order.
	Contents []Content

	// MessageID correlates updates belonging to the same message.
	MessageID string

	// ResponseID identifies the producing exchange (run).
	ResponseID string

	// ConversationID, when set, is a continuation token: layers that see it
	// may send only new messages on the next turn and reference this id
	// instead of resending history.
	ConversationID string

	// FinishReason is FinishNone on all but the terminal update of a turn.
	FinishReason FinishReason

	// Usage is token accounting, set on terminal updates when known.
	Usage *Usage

	// Metadata carries free-form producer annotations.
	Metadata map[string]any
}

// Text returns the concatenated text fragments of this update.
func (u Update) Text() string {
	var s string
	for _, c := range u.Contents {
		if t, ok := c.(TextContent); ok {
			s += t.Text
		}
	}
	return s
}

// MessagesFromUpdates folds a turn's updates into conversation history.
//
// Text fragments sharing a message id coalesce into one assistant message;
// tool calls attach to the enclosing assistant message, accumulating argument
// fragments per call id; tool results collect into a following tool message.
// ServerToolContent unwraps here: its call joins the assistant message and its
// result joins the tool message, so downstream consumers see server-resolved
// calls as ordinary completed calls.
func MessagesFromUpdates(updates []Update) []Message {
	var out []Message
	var cur *Message
	var results []ToolResult

	flush := func() {
		if cur != nil && !cur.IsEmpty() {
			out = append(out, *cur)
		}
		cur = nil
		if len(results) > 0 {
			out = append(out, NewToolResultMessage(results...))
			results = nil
		}
	}

	open := func(u Update) {
		role := u.Role
		if role == "" {
			role = RoleAssistant
		}
		cur = &Message{ID: u.MessageID, Role: role}
	}

	appendCall := func(call ToolCall) {
		if cur == nil || cur.Role == RoleTool {
			flush()
			cur = &Message{Role: RoleAssistant}
		}
		for i := range cur.ToolCalls {
			if cur.ToolCalls[i].ID == call.ID {
				cur.ToolCalls[i].Arguments += call.Arguments
				return
			}
		}
		cur.ToolCalls = append(cur.ToolCalls, call)
	}

	for _, u := range updates {
		for _, c := range u.Contents {
			switch c := c.(type) {
			case TextContent:
				if cur == nil || (u.MessageID != "" && cur.ID != u.MessageID) {
					flush()
					open(u)
				}
				cur.Content += c.Text

			case ToolCallContent:
				appendCall(c.Call)

			case ToolResultContent:
				results = append(results, c.Result)

			case ServerToolContent:
				appendCall(c.Call)
				results = append(results, c.Result)
			}
		}
	}

	flush()
	return out
}

// Collect drains the update channel into a slice.
func Collect(updates <-chan Update) []Update {
	var all []Update
	for u := range updates {
		all = append(all, u)
	}
	return all
}
