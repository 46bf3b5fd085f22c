package agui

import (
	"encoding/json"
	"fmt"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// Reserved keys under which the server endpoint forwards run-scoped request
// fields through loom.RunOptions.Extra. Downstream context providers read
// them; nothing in this package interprets their values.
const (
	ExtraKeyThreadID       = "agui.threadId"
	ExtraKeyRunID          = "agui.runId"
	ExtraKeyState          = "agui.state"
	ExtraKeyContext        = "agui.context"
	ExtraKeyForwardedProps = "agui.forwardedProperties"
)

// Tool is a frontend tool declaration carried by the run request. The caller
// executes these tools locally; the agent only requests them.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ContextItem is one entry of free-form context forwarded with the request.
type ContextItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// RunAgentInput is the JSON body of a run request.
type RunAgentInput struct {
	ThreadID       string           `json:"threadId"`
	RunID          string           `json:"runId"`
	Messages       []events.Message `json:"messages"`
	Tools          []Tool           `json:"tools,omitempty"`
	Context        []ContextItem    `json:"context,omitempty"`
	State          json.RawMessage  `json:"state,omitempty"`
	ForwardedProps json.RawMessage  `json:"forwardedProperties,omitempty"`
}

// PreparedInput is a validated run request converted to loom types.
type PreparedInput struct {
	ThreadID       string
	RunID          string
	Messages       []loom.Message
	Tools          []loom.Tool
	ToolNames      []string
	Context        []ContextItem
	State          json.RawMessage
	ForwardedProps json.RawMessage
}

// Prepare validates the input and converts it for agent invocation. Missing
// thread and run ids are generated. A request with no usable messages or an
// unknown message role is malformed.
func (in *RunAgentInput) Prepare() (*PreparedInput, error) {
	if len(in.Messages) == 0 {
		return nil, &MalformedRequestError{Reason: "no messages"}
	}

	messages, err := ToMessages(in.Messages)
	if err != nil {
		return nil, err
	}

	p := &PreparedInput{
		ThreadID:       in.ThreadID,
		RunID:          in.RunID,
		Messages:       messages,
		Context:        in.Context,
		State:          in.State,
		ForwardedProps: in.ForwardedProps,
	}
	if p.ThreadID == "" {
		p.ThreadID = events.GenerateThreadID()
	}
	if p.RunID == "" {
		p.RunID = events.GenerateRunID()
	}

	for _, t := range in.Tools {
		if t.Name == "" {
			return nil, &MalformedRequestError{Reason: "tool declaration without a name"}
		}
		p.Tools = append(p.Tools, loom.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
		p.ToolNames = append(p.ToolNames, t.Name)
	}

	return p, nil
}

// RunOptions returns the invocation options derived from the request: the
// frontend tool declarations plus the request's run-scoped fields under the
// reserved Extra keys.
func (p *PreparedInput) RunOptions() []loom.RunOption {
	opts := []loom.RunOption{
		loom.WithExtra(ExtraKeyThreadID, p.ThreadID),
		loom.WithExtra(ExtraKeyRunID, p.RunID),
	}
	if len(p.Tools) > 0 {
		opts = append(opts, loom.WithTools(p.Tools))
	}
	if len(p.State) > 0 {
		opts = append(opts, loom.WithExtra(ExtraKeyState, p.State))
	}
	if len(p.Context) > 0 {
		opts = append(opts, loom.WithExtra(ExtraKeyContext, p.Context))
	}
	if len(p.ForwardedProps) > 0 {
		opts = append(opts, loom.WithExtra(ExtraKeyForwardedProps, p.ForwardedProps))
	}
	return opts
}

// DecodeState unmarshals a request state blob into a typed value.
func DecodeState[T any](raw json.RawMessage) (T, error) {
	var state T
	if len(raw) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("agui: decode state: %w", err)
	}
	return state, nil
}
