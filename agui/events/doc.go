// Package events defines the AG-UI protocol wire events.
//
// The AG-UI (Agent-User Interaction) protocol streams agent output to
// frontend applications as a sequence of typed events: run lifecycle
// (RUN_STARTED, RUN_FINISHED, RUN_ERROR), text message envelopes
// (TEXT_MESSAGE_START, TEXT_MESSAGE_CONTENT, TEXT_MESSAGE_END), and tool
// call envelopes (TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END,
// TOOL_CALL_RESULT).
//
// Every Start event has exactly one matching End event later in the same
// stream, and no two open envelopes of the same kind overlap for the same
// id. [Verifier] checks a stream against these rules.
//
// # Usage
//
//	run := events.NewRunStartedEvent("thread_1", "run_1")
//	start := events.NewTextMessageStartEvent("msg_1", events.WithRole("assistant"))
//	content := events.NewTextMessageContentEvent("msg_1", "Hello!")
//	end := events.NewTextMessageEndEvent("msg_1")
//
// Events serialize to the documented JSON shapes via [Event.ToJSON] and
// parse back via [EventFromJSON]. Unknown event types parse to
// [ErrUnknownEvent] so readers can skip them, tolerating protocol
// evolution.
package events
