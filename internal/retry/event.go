package retry

import "time"

// EventType names a point in the retry lifecycle.
type EventType string

const (
	// EventAttemptStart precedes each attempt.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed follows an attempt that returned an error.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying precedes the backoff sleep before the next attempt.
	EventRetrying EventType = "retrying"

	// EventSuccess reports an attempt that returned without error.
	EventSuccess EventType = "success"

	// EventExhausted reports that no attempts remain.
	EventExhausted EventType = "exhausted"
)

// Event is one observation of a retried operation, published on the
// channel given to the WithEvents variants.
type Event struct {
	// Type names the lifecycle point.
	Type EventType

	// Attempt counts from 1.
	Attempt int

	// MaxAttempts is the attempt ceiling for this run.
	MaxAttempts int

	// Error is the attempt's error, when there is one.
	Error error

	// Delay is the upcoming backoff, set on EventRetrying.
	Delay time.Duration

	// Retryable reports whether the error classified as transient.
	Retryable bool

	// Timestamp is set at publish time.
	Timestamp time.Time
}

// emit stamps and publishes an event. A nil or full channel drops it;
// observation never blocks the retried operation.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}
