package events

// Message is the history entry shape used by the run request body.
// Content is a pointer so an absent content field is distinguishable from an
// empty string.
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       string     `json:"role"`
	Content    *string    `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID *string    `json:"toolCallId,omitempty"`
}

// ToolCall is a completed or requested tool invocation in message history.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function carries the name and serialized arguments of a tool call.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
