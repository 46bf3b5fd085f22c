package agui

import (
	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// Encoder translates one run's update stream into wire events.
//
// It tracks the open text envelope (message id and role) and the set of open
// tool-call envelopes, and closes them so the output is always well nested:
// a role or message-id change closes the text envelope, a result or the end
// of the run closes a tool-call envelope, and a failure terminates the run
// without closing anything.
//
// An Encoder serves a single run and is not safe for concurrent use.
type Encoder struct {
	threadID string
	runID    string

	openMessageID   string
	openMessageRole string
	openCallOrder   []string
	openCalls       map[string]bool
	done            bool
}

// NewEncoder creates an Encoder for one run. Empty ids are generated.
func NewEncoder(threadID, runID string) *Encoder {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Encoder{
		threadID:  threadID,
		runID:     runID,
		openCalls: make(map[string]bool),
	}
}

// ThreadID returns the thread id announced by Start.
func (e *Encoder) ThreadID() string { return e.threadID }

// RunID returns the run id announced by Start.
func (e *Encoder) RunID() string { return e.runID }

// Start returns the RUN_STARTED event. It must be emitted before any
// encoded update.
func (e *Encoder) Start() events.Event {
	return events.NewRunStartedEvent(e.threadID, e.runID)
}

// Encode translates one update's content items, in order. An error content
// item produces RUN_ERROR and ends the run; everything after it is dropped.
func (e *Encoder) Encode(u loom.Update) []events.Event {
	if e.done {
		return nil
	}

	role := string(u.Role)
	if role == "" {
		role = "assistant"
	}

	var out []events.Event
	for _, c := range u.Contents {
		switch c := c.(type) {
		case loom.TextContent:
			out = append(out, e.text(u.MessageID, role, c.Text)...)
		case loom.ToolCallContent:
			out = append(out, e.call(u.MessageID, c.Call)...)
		case loom.ToolResultContent:
			out = append(out, e.result(c.Result)...)
		case loom.ServerToolContent:
			out = append(out, e.call(u.MessageID, c.Call)...)
			out = append(out, e.result(loom.ToolResult{
				ToolCallID: c.Call.ID,
				Content:    c.Result.Content,
				IsError:    c.Result.IsError,
			})...)
		case loom.ErrorContent:
			code := c.Code
			if code == "" {
				code = CodeUpstreamFailure
			}
			out = append(out, e.Fail(c.Message, code)...)
			return out
		}
	}
	return out
}

// Finish closes every open envelope and returns them followed by
// RUN_FINISHED. After a failure it returns nothing.
func (e *Encoder) Finish() []events.Event {
	if e.done {
		return nil
	}
	e.done = true

	out := e.closeText()
	for _, id := range e.openCallOrder {
		if e.openCalls[id] {
			delete(e.openCalls, id)
			out = append(out, events.NewToolCallEndEvent(id))
		}
	}
	e.openCallOrder = nil
	return append(out, events.NewRunFinishedEvent(e.threadID, e.runID))
}

// Fail returns a RUN_ERROR event and ends the run. Open envelopes stay open;
// the terminal error supersedes their closure.
func (e *Encoder) Fail(message, code string) []events.Event {
	if e.done {
		return nil
	}
	e.done = true
	var opts []events.RunErrorOption
	if code != "" {
		opts = append(opts, events.WithErrorCode(code))
	}
	return []events.Event{events.NewRunErrorEvent(message, opts...)}
}

// Done reports whether a terminal event has been produced.
func (e *Encoder) Done() bool { return e.done }

func (e *Encoder) text(messageID, role, delta string) []events.Event {
	if messageID == "" {
		messageID = e.openMessageID
	}
	if messageID == "" {
		messageID = events.GenerateMessageID()
	}

	var out []events.Event
	if e.openMessageID != messageID || e.openMessageRole != role {
		out = e.closeText()
		e.openMessageID = messageID
		e.openMessageRole = role
		out = append(out, events.NewTextMessageStartEvent(messageID, events.WithRole(role)))
	}
	return append(out, events.NewTextMessageContentEvent(messageID, delta))
}

func (e *Encoder) call(messageID string, call loom.ToolCall) []events.Event {
	parent := e.openMessageID
	if parent == "" {
		parent = messageID
	}
	// Text closes before a tool-call envelope opens so the two never nest.
	out := e.closeText()

	if !e.openCalls[call.ID] {
		e.openCalls[call.ID] = true
		e.openCallOrder = append(e.openCallOrder, call.ID)
		var opts []events.ToolCallStartOption
		if parent != "" {
			opts = append(opts, events.WithParentMessageID(parent))
		}
		out = append(out, events.NewToolCallStartEvent(call.ID, call.Name, opts...))
	}
	if call.Arguments != "" {
		out = append(out, events.NewToolCallArgsEvent(call.ID, call.Arguments))
	}
	return out
}

func (e *Encoder) result(r loom.ToolResult) []events.Event {
	var out []events.Event
	if e.openCalls[r.ToolCallID] {
		delete(e.openCalls, r.ToolCallID)
		out = append(out, events.NewToolCallEndEvent(r.ToolCallID))
	}
	return append(out, events.NewToolCallResultEvent(events.GenerateMessageID(), r.ToolCallID, r.Content))
}

func (e *Encoder) closeText() []events.Event {
	if e.openMessageID == "" {
		return nil
	}
	ev := events.NewTextMessageEndEvent(e.openMessageID)
	e.openMessageID = ""
	e.openMessageRole = ""
	return []events.Event{ev}
}
