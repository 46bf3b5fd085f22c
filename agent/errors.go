package agent

import "errors"

// Sentinel errors for agent termination conditions.
var (
	// ErrMaxStepsReached indicates the agent hit the step limit.
	ErrMaxStepsReached = errors.New("agent: maximum steps reached")

	// ErrAllToolsRejected indicates every requested tool call was rejected
	// by the approver.
	ErrAllToolsRejected = errors.New("agent: all tool calls rejected")
)
