package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType identifies the kind of a wire event.
type EventType string

// The closed set of event types this bridge emits and consumes.
const (
	EventTypeRunStarted         EventType = "RUN_STARTED"
	EventTypeRunFinished        EventType = "RUN_FINISHED"
	EventTypeRunError           EventType = "RUN_ERROR"
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventTypeToolCallStart      EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd        EventType = "TOOL_CALL_END"
	EventTypeToolCallResult     EventType = "TOOL_CALL_RESULT"
)

// Event is a single typed message of the AG-UI streaming protocol.
type Event interface {
	Type() EventType
	ToJSON() ([]byte, error)
	Validate() error
}

// BaseEvent carries the fields common to all wire events.
type BaseEvent struct {
	EventType   EventType `json:"type"`
	TimestampMs int64     `json:"timestamp,omitempty"`
}

// Type returns the event type.
func (b *BaseEvent) Type() EventType { return b.EventType }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, TimestampMs: time.Now().UnixMilli()}
}

// RunStartedEvent signals the beginning of a run.
type RunStartedEvent struct {
	BaseEvent
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

// NewRunStartedEvent creates a RUN_STARTED event.
func NewRunStartedEvent(threadID, runID string) *RunStartedEvent {
	return &RunStartedEvent{
		BaseEvent: newBase(EventTypeRunStarted),
		ThreadID:  threadID,
		RunID:     runID,
	}
}

func (e *RunStartedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *RunStartedEvent) Validate() error {
	if e.ThreadID == "" {
		return errors.New("RUN_STARTED: threadId is required")
	}
	if e.RunID == "" {
		return errors.New("RUN_STARTED: runId is required")
	}
	return nil
}

// RunFinishedEvent signals clean completion of a run.
type RunFinishedEvent struct {
	BaseEvent
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

// NewRunFinishedEvent creates a RUN_FINISHED event.
func NewRunFinishedEvent(threadID, runID string) *RunFinishedEvent {
	return &RunFinishedEvent{
		BaseEvent: newBase(EventTypeRunFinished),
		ThreadID:  threadID,
		RunID:     runID,
	}
}

func (e *RunFinishedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *RunFinishedEvent) Validate() error {
	if e.ThreadID == "" {
		return errors.New("RUN_FINISHED: threadId is required")
	}
	if e.RunID == "" {
		return errors.New("RUN_FINISHED: runId is required")
	}
	return nil
}

// RunErrorEvent signals failure of a run. It is terminal: no events follow.
type RunErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RunErrorOption configures a RunErrorEvent.
type RunErrorOption func(*RunErrorEvent)

// WithErrorCode attaches a machine-readable code to a RUN_ERROR event.
func WithErrorCode(code string) RunErrorOption {
	return func(e *RunErrorEvent) { e.Code = code }
}

// NewRunErrorEvent creates a RUN_ERROR event.
func NewRunErrorEvent(message string, opts ...RunErrorOption) *RunErrorEvent {
	e := &RunErrorEvent{
		BaseEvent: newBase(EventTypeRunError),
		Message:   message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *RunErrorEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *RunErrorEvent) Validate() error {
	if e.Message == "" {
		return errors.New("RUN_ERROR: message is required")
	}
	return nil
}

// TextMessageStartEvent opens a text message envelope.
type TextMessageStartEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
	Role      string `json:"role,omitempty"`
}

// TextMessageStartOption configures a TextMessageStartEvent.
type TextMessageStartOption func(*TextMessageStartEvent)

// WithRole sets the role of the message being opened.
func WithRole(role string) TextMessageStartOption {
	return func(e *TextMessageStartEvent) { e.Role = role }
}

// NewTextMessageStartEvent creates a TEXT_MESSAGE_START event.
func NewTextMessageStartEvent(messageID string, opts ...TextMessageStartOption) *TextMessageStartEvent {
	e := &TextMessageStartEvent{
		BaseEvent: newBase(EventTypeTextMessageStart),
		MessageID: messageID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TextMessageStartEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *TextMessageStartEvent) Validate() error {
	if e.MessageID == "" {
		return errors.New("TEXT_MESSAGE_START: messageId is required")
	}
	return nil
}

// TextMessageContentEvent carries one text delta of an open message.
type TextMessageContentEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

// NewTextMessageContentEvent creates a TEXT_MESSAGE_CONTENT event.
func NewTextMessageContentEvent(messageID, delta string) *TextMessageContentEvent {
	return &TextMessageContentEvent{
		BaseEvent: newBase(EventTypeTextMessageContent),
		MessageID: messageID,
		Delta:     delta,
	}
}

func (e *TextMessageContentEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *TextMessageContentEvent) Validate() error {
	if e.MessageID == "" {
		return errors.New("TEXT_MESSAGE_CONTENT: messageId is required")
	}
	return nil
}

// TextMessageEndEvent closes a text message envelope.
type TextMessageEndEvent struct {
	BaseEvent
	MessageID string `json:"messageId"`
}

// NewTextMessageEndEvent creates a TEXT_MESSAGE_END event.
func NewTextMessageEndEvent(messageID string) *TextMessageEndEvent {
	return &TextMessageEndEvent{
		BaseEvent: newBase(EventTypeTextMessageEnd),
		MessageID: messageID,
	}
}

func (e *TextMessageEndEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *TextMessageEndEvent) Validate() error {
	if e.MessageID == "" {
		return errors.New("TEXT_MESSAGE_END: messageId is required")
	}
	return nil
}

// ToolCallStartEvent opens a tool call envelope.
type ToolCallStartEvent struct {
	BaseEvent
	ToolCallID      string `json:"toolCallId"`
	ToolCallName    string `json:"toolCallName"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

// ToolCallStartOption configures a ToolCallStartEvent.
type ToolCallStartOption func(*ToolCallStartEvent)

// WithParentMessageID attaches the id of the message that requested the call.
func WithParentMessageID(messageID string) ToolCallStartOption {
	return func(e *ToolCallStartEvent) { e.ParentMessageID = messageID }
}

// NewToolCallStartEvent creates a TOOL_CALL_START event.
func NewToolCallStartEvent(toolCallID, toolCallName string, opts ...ToolCallStartOption) *ToolCallStartEvent {
	e := &ToolCallStartEvent{
		BaseEvent:    newBase(EventTypeToolCallStart),
		ToolCallID:   toolCallID,
		ToolCallName: toolCallName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ToolCallStartEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *ToolCallStartEvent) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("TOOL_CALL_START: toolCallId is required")
	}
	if e.ToolCallName == "" {
		return errors.New("TOOL_CALL_START: toolCallName is required")
	}
	return nil
}

// ToolCallArgsEvent carries one arguments fragment of an open tool call.
type ToolCallArgsEvent struct {
	BaseEvent
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

// NewToolCallArgsEvent creates a TOOL_CALL_ARGS event.
func NewToolCallArgsEvent(toolCallID, delta string) *ToolCallArgsEvent {
	return &ToolCallArgsEvent{
		BaseEvent:  newBase(EventTypeToolCallArgs),
		ToolCallID: toolCallID,
		Delta:      delta,
	}
}

func (e *ToolCallArgsEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *ToolCallArgsEvent) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("TOOL_CALL_ARGS: toolCallId is required")
	}
	return nil
}

// ToolCallEndEvent closes a tool call envelope.
type ToolCallEndEvent struct {
	BaseEvent
	ToolCallID string `json:"toolCallId"`
}

// NewToolCallEndEvent creates a TOOL_CALL_END event.
func NewToolCallEndEvent(toolCallID string) *ToolCallEndEvent {
	return &ToolCallEndEvent{
		BaseEvent:  newBase(EventTypeToolCallEnd),
		ToolCallID: toolCallID,
	}
}

func (e *ToolCallEndEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *ToolCallEndEvent) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("TOOL_CALL_END: toolCallId is required")
	}
	return nil
}

// ToolCallResultEvent reports the result of a tool call the agent resolved
// itself. It appears after the call's envelope has closed.
type ToolCallResultEvent struct {
	BaseEvent
	MessageID  string `json:"messageId"`
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
	Role       string `json:"role,omitempty"`
}

// NewToolCallResultEvent creates a TOOL_CALL_RESULT event.
func NewToolCallResultEvent(messageID, toolCallID, content string) *ToolCallResultEvent {
	return &ToolCallResultEvent{
		BaseEvent:  newBase(EventTypeToolCallResult),
		MessageID:  messageID,
		ToolCallID: toolCallID,
		Content:    content,
		Role:       "tool",
	}
}

func (e *ToolCallResultEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *ToolCallResultEvent) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("TOOL_CALL_RESULT: toolCallId is required")
	}
	return nil
}

// ErrUnknownEvent is returned by EventFromJSON for event types outside the
// set this package implements. Readers should skip these, not fail.
var ErrUnknownEvent = errors.New("events: unknown event type")

// EventFromJSON parses a wire event from its JSON encoding.
func EventFromJSON(data []byte) (Event, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("events: invalid event json: %w", err)
	}

	var e Event
	switch head.Type {
	case EventTypeRunStarted:
		e = &RunStartedEvent{}
	case EventTypeRunFinished:
		e = &RunFinishedEvent{}
	case EventTypeRunError:
		e = &RunErrorEvent{}
	case EventTypeTextMessageStart:
		e = &TextMessageStartEvent{}
	case EventTypeTextMessageContent:
		e = &TextMessageContentEvent{}
	case EventTypeTextMessageEnd:
		e = &TextMessageEndEvent{}
	case EventTypeToolCallStart:
		e = &ToolCallStartEvent{}
	case EventTypeToolCallArgs:
		e = &ToolCallArgsEvent{}
	case EventTypeToolCallEnd:
		e = &ToolCallEndEvent{}
	case EventTypeToolCallResult:
		e = &ToolCallResultEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, head.Type)
	}

	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("events: decoding %s: %w", head.Type, err)
	}
	return e, nil
}
