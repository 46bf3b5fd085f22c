package events

import "github.com/google/uuid"

// GenerateThreadID returns a fresh thread identifier.
func GenerateThreadID() string {
	return "thread_" + uuid.NewString()
}

// GenerateRunID returns a fresh run identifier.
func GenerateRunID() string {
	return "run_" + uuid.NewString()
}

// GenerateMessageID returns a fresh message identifier.
func GenerateMessageID() string {
	return "msg_" + uuid.NewString()
}

// GenerateToolCallID returns a fresh tool call identifier.
func GenerateToolCallID() string {
	return "call_" + uuid.NewString()
}
