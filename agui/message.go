package agui

import (
	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// ToMessages converts wire history entries to loom messages.
//
// Tool messages on the wire carry one tool call id each; consecutive ones
// could in principle be folded, but the agent layers accept them separately
// so no folding is done here.
func ToMessages(wire []events.Message) ([]loom.Message, error) {
	messages := make([]loom.Message, 0, len(wire))
	for _, m := range wire {
		role, err := toRole(m.Role)
		if err != nil {
			return nil, err
		}

		content := ""
		if m.Content != nil {
			content = *m.Content
		}

		if role == loom.RoleTool {
			if m.ToolCallID == nil || *m.ToolCallID == "" {
				return nil, &MalformedRequestError{Reason: "tool message without toolCallId"}
			}
			messages = append(messages, loom.Message{
				ID:   m.ID,
				Role: loom.RoleTool,
				ToolResults: []loom.ToolResult{{
					ToolCallID: *m.ToolCallID,
					Content:    content,
				}},
			})
			continue
		}

		msg := loom.Message{
			ID:      m.ID,
			Role:    role,
			Content: content,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, loom.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// FromMessages converts loom messages to wire history entries. A tool
// message with several results fans out into one wire message per result.
// Content parts other than text do not travel in history; callers extract
// state payloads before conversion.
func FromMessages(messages []loom.Message) []events.Message {
	wire := make([]events.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == loom.RoleTool {
			for _, r := range m.ToolResults {
				id := m.ID
				if len(m.ToolResults) > 1 {
					id = ""
				}
				callID := r.ToolCallID
				content := r.Content
				wire = append(wire, events.Message{
					ID:         id,
					Role:       "tool",
					Content:    &content,
					ToolCallID: &callID,
				})
			}
			continue
		}

		wm := events.Message{
			ID:   m.ID,
			Role: string(m.Role),
		}
		content := m.Content
		if content == "" && m.HasParts() {
			for _, p := range m.Parts {
				if p.Type == loom.ContentPartTypeText {
					content += p.Text
				}
			}
		}
		if content != "" || len(m.ToolCalls) == 0 {
			wm.Content = &content
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		wire = append(wire, wm)
	}
	return wire
}

func toRole(role string) (loom.Role, error) {
	switch role {
	case "user":
		return loom.RoleUser, nil
	case "assistant":
		return loom.RoleAssistant, nil
	case "system", "developer":
		return loom.RoleSystem, nil
	case "tool":
		return loom.RoleTool, nil
	default:
		return "", &MalformedRequestError{Reason: "unknown message role " + role}
	}
}
