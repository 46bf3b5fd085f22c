package agui

import "fmt"

// Error codes attached to loom.ErrorContent items produced by this package.
const (
	// CodeUpstreamFailure marks a failure reported by the remote agent
	// through a clean RUN_ERROR event.
	CodeUpstreamFailure = "upstream_failure"
	// CodeTransportFailure marks a stream that ended without a terminal
	// event. Output before the cut may be truncated and must not be
	// mistaken for a complete turn.
	CodeTransportFailure = "transport_failure"
	// CodeProtocolViolation marks an event sequence that broke the
	// protocol's nesting rules. It indicates an encoder/decoder mismatch,
	// so the rest of the stream cannot be trusted.
	CodeProtocolViolation = "protocol_violation"
)

// MalformedRequestError describes a run request rejected before any event
// was emitted.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return "agui: malformed request: " + e.Reason
}

// TransportError reports a stream that ended without RUN_FINISHED or
// RUN_ERROR.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agui: transport failure: %v", e.Err)
	}
	return "agui: transport failure: stream ended before a terminal event"
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports an event sequence that violated the protocol's
// ordering rules.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("agui: protocol violation: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
