package events

import "fmt"

// Verifier checks a wire event stream against the protocol's sequencing
// rules: exactly one RUN_STARTED first, exactly one terminal event last,
// every Start matched by one End, and no overlapping envelopes of the same
// kind for the same id. A closed envelope's id may open again later in the
// stream; a message interrupted by a tool call resumes under the same id.
//
// A Verifier observes one run. It is not safe for concurrent use.
type Verifier struct {
	started  bool
	finished bool

	openMessage string
	openCalls   map[string]bool
	closedCalls map[string]bool
}

// NewVerifier creates a Verifier for a single run.
func NewVerifier() *Verifier {
	return &Verifier{
		openCalls:   make(map[string]bool),
		closedCalls: make(map[string]bool),
	}
}

// Observe checks one event against the sequence so far.
func (v *Verifier) Observe(e Event) error {
	if v.finished {
		return fmt.Errorf("events: %s after terminal event", e.Type())
	}
	if !v.started && e.Type() != EventTypeRunStarted {
		return fmt.Errorf("events: %s before RUN_STARTED", e.Type())
	}

	switch ev := e.(type) {
	case *RunStartedEvent:
		if v.started {
			return fmt.Errorf("events: duplicate RUN_STARTED")
		}
		v.started = true

	case *RunFinishedEvent:
		if v.openMessage != "" {
			return fmt.Errorf("events: RUN_FINISHED with open message %s", v.openMessage)
		}
		for id := range v.openCalls {
			return fmt.Errorf("events: RUN_FINISHED with open tool call %s", id)
		}
		v.finished = true

	case *RunErrorEvent:
		// RUN_ERROR may interrupt open envelopes.
		v.finished = true

	case *TextMessageStartEvent:
		if v.openMessage != "" {
			return fmt.Errorf("events: TEXT_MESSAGE_START for %s while %s is open", ev.MessageID, v.openMessage)
		}
		v.openMessage = ev.MessageID

	case *TextMessageContentEvent:
		if v.openMessage != ev.MessageID {
			return fmt.Errorf("events: TEXT_MESSAGE_CONTENT for %s but open message is %q", ev.MessageID, v.openMessage)
		}

	case *TextMessageEndEvent:
		if v.openMessage != ev.MessageID {
			return fmt.Errorf("events: TEXT_MESSAGE_END for %s but open message is %q", ev.MessageID, v.openMessage)
		}
		v.openMessage = ""

	case *ToolCallStartEvent:
		if v.openCalls[ev.ToolCallID] {
			return fmt.Errorf("events: TOOL_CALL_START for already open call %s", ev.ToolCallID)
		}
		delete(v.closedCalls, ev.ToolCallID)
		v.openCalls[ev.ToolCallID] = true

	case *ToolCallArgsEvent:
		if !v.openCalls[ev.ToolCallID] {
			return fmt.Errorf("events: TOOL_CALL_ARGS for call %s that is not open", ev.ToolCallID)
		}

	case *ToolCallEndEvent:
		if !v.openCalls[ev.ToolCallID] {
			return fmt.Errorf("events: TOOL_CALL_END for call %s that is not open", ev.ToolCallID)
		}
		delete(v.openCalls, ev.ToolCallID)
		v.closedCalls[ev.ToolCallID] = true

	case *ToolCallResultEvent:
		if !v.closedCalls[ev.ToolCallID] {
			return fmt.Errorf("events: TOOL_CALL_RESULT for call %s before its envelope closed", ev.ToolCallID)
		}
	}

	return nil
}

// Finished reports whether a terminal event has been observed.
func (v *Verifier) Finished() bool { return v.finished }

// Check observes an entire sequence and additionally requires that it
// reached a terminal event.
func Check(sequence []Event) error {
	v := NewVerifier()
	for _, e := range sequence {
		if err := v.Observe(e); err != nil {
			return err
		}
	}
	if !v.Finished() {
		return fmt.Errorf("events: sequence has no terminal event")
	}
	return nil
}
