package agui

import (
	"context"
	"errors"
	"io"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// Decoder reconstructs an update stream from a run's SSE byte stream. It is
// the inverse of the Encoder: Start/End envelopes become message and call
// boundaries, deltas accumulate, and the terminal event ends the stream.
//
// A resolved tool call (one whose TOOL_CALL_RESULT arrives right after its
// envelope closes) surfaces as a single loom.ServerToolContent item, so a
// tool-running layer on this side never tries to execute it. A call that
// closes without a result is a frontend call and surfaces plainly; the run
// then terminates with loom.FinishToolCalls.
//
// Frames carrying event types this package does not know are skipped, so
// newer servers can interleave events (state snapshots, activity signals)
// without breaking older clients.
//
// A stream that ends without RUN_FINISHED or RUN_ERROR, or that violates the
// protocol's ordering rules, terminates the update stream with an error
// content item; Err then reports the underlying *TransportError or
// *ProtocolError.
type Decoder struct {
	frames   *frameReader
	verifier *events.Verifier

	threadID string
	runID    string

	openTextID   string
	openTextRole string
	calls        map[string]*callState
	completed    []*callState
	pendingCalls int

	err error
}

type callState struct {
	id     string
	name   string
	parent string
	args   string
}

// NewDecoder creates a Decoder over a run's SSE response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		frames:   newFrameReader(r),
		verifier: events.NewVerifier(),
		calls:    make(map[string]*callState),
	}
}

// ThreadID returns the thread id announced by the run, once RUN_STARTED has
// been decoded.
func (d *Decoder) ThreadID() string { return d.threadID }

// Err returns the stream-level failure, if any, after the update channel
// closes. A clean RUN_FINISHED or RUN_ERROR leaves it nil; RUN_ERROR is an
// in-band failure, not a broken stream.
func (d *Decoder) Err() error { return d.err }

// Updates decodes the stream into a channel of updates. The channel closes
// after a terminal update or when ctx is cancelled.
func (d *Decoder) Updates(ctx context.Context) <-chan loom.Update {
	out := make(chan loom.Update, 16)
	go func() {
		defer close(out)
		d.run(ctx, out)
	}()
	return out
}

func (d *Decoder) run(ctx context.Context, out chan<- loom.Update) {
	emit := func(u loom.Update) bool {
		select {
		case out <- u:
			return true
		case <-ctx.Done():
			d.err = ctx.Err()
			return false
		}
	}

	fail := func(streamErr error, code string) {
		d.err = streamErr
		d.flushCompleted(emit)
		emit(loom.Update{
			Role:       loom.RoleAssistant,
			ResponseID: d.runID,
			Contents: []loom.Content{loom.ErrorContent{
				Message: streamErr.Error(),
				Code:    code,
			}},
			FinishReason: loom.FinishError,
		})
	}

	for {
		if ctx.Err() != nil {
			d.err = ctx.Err()
			return
		}

		e, err := d.frames.readEvent()
		if err != nil {
			// Event types this reader does not know are skipped, not fatal.
			if errors.Is(err, events.ErrUnknownEvent) {
				continue
			}
			if pe, ok := err.(*ProtocolError); ok {
				fail(pe, CodeProtocolViolation)
				return
			}
			fail(&TransportError{Err: unexpected(err)}, CodeTransportFailure)
			return
		}

		if err := d.verifier.Observe(e); err != nil {
			fail(&ProtocolError{Err: err}, CodeProtocolViolation)
			return
		}

		switch e := e.(type) {
		case *events.RunStartedEvent:
			d.threadID = e.ThreadID
			d.runID = e.RunID
			if !emit(loom.Update{ConversationID: e.ThreadID, ResponseID: e.RunID}) {
				return
			}

		case *events.TextMessageStartEvent:
			if !d.flushCompleted(emit) {
				return
			}
			d.openTextID = e.MessageID
			d.openTextRole = e.Role
			if d.openTextRole == "" {
				d.openTextRole = "assistant"
			}

		case *events.TextMessageContentEvent:
			if !emit(loom.Update{
				Role:       loom.Role(d.openTextRole),
				MessageID:  e.MessageID,
				ResponseID: d.runID,
				Contents:   []loom.Content{loom.TextContent{Text: e.Delta}},
			}) {
				return
			}

		case *events.TextMessageEndEvent:
			d.openTextID = ""
			d.openTextRole = ""

		case *events.ToolCallStartEvent:
			d.calls[e.ToolCallID] = &callState{
				id:     e.ToolCallID,
				name:   e.ToolCallName,
				parent: e.ParentMessageID,
			}

		case *events.ToolCallArgsEvent:
			d.calls[e.ToolCallID].args += e.Delta

		case *events.ToolCallEndEvent:
			d.completed = append(d.completed, d.calls[e.ToolCallID])
			delete(d.calls, e.ToolCallID)

		case *events.ToolCallResultEvent:
			if cs := d.takeCompleted(e.ToolCallID); cs != nil {
				if !emit(loom.Update{
					Role:       loom.RoleAssistant,
					MessageID:  cs.parent,
					ResponseID: d.runID,
					Contents: []loom.Content{loom.ServerToolContent{
						Call:   loom.ToolCall{ID: cs.id, Name: cs.name, Arguments: cs.args},
						Result: loom.ToolResult{ToolCallID: e.ToolCallID, Content: e.Content},
					}},
				}) {
					return
				}
				break
			}
			if !emit(loom.Update{
				Role:       loom.RoleTool,
				MessageID:  e.MessageID,
				ResponseID: d.runID,
				Contents: []loom.Content{loom.ToolResultContent{
					Result: loom.ToolResult{ToolCallID: e.ToolCallID, Content: e.Content},
				}},
			}) {
				return
			}

		case *events.RunFinishedEvent:
			if !d.flushCompleted(emit) {
				return
			}
			finish := loom.FinishStop
			if d.pendingCalls > 0 {
				finish = loom.FinishToolCalls
			}
			emit(loom.Update{ResponseID: d.runID, FinishReason: finish})
			return

		case *events.RunErrorEvent:
			if !d.flushCompleted(emit) {
				return
			}
			code := e.Code
			if code == "" {
				code = CodeUpstreamFailure
			}
			emit(loom.Update{
				Role:       loom.RoleAssistant,
				ResponseID: d.runID,
				Contents: []loom.Content{loom.ErrorContent{
					Message: e.Message,
					Code:    code,
				}},
				FinishReason: loom.FinishError,
			})
			return
		}
	}
}

// flushCompleted surfaces closed calls that never got a result as plain
// pending tool calls.
func (d *Decoder) flushCompleted(emit func(loom.Update) bool) bool {
	for _, cs := range d.completed {
		d.pendingCalls++
		if !emit(loom.Update{
			Role:       loom.RoleAssistant,
			MessageID:  cs.parent,
			ResponseID: d.runID,
			Contents: []loom.Content{loom.ToolCallContent{
				Call: loom.ToolCall{ID: cs.id, Name: cs.name, Arguments: cs.args},
			}},
		}) {
			return false
		}
	}
	d.completed = nil
	return true
}

func (d *Decoder) takeCompleted(toolCallID string) *callState {
	for i, cs := range d.completed {
		if cs.id == toolCallID {
			d.completed = append(d.completed[:i], d.completed[i+1:]...)
			return cs
		}
	}
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}
