package tool

import "fmt"

// ErrToolNotFound is returned when a tool call references an unregistered tool.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrClientTool is returned when Execute is asked to run a client-side tool.
// Client tools have no local handler; the caller must pass the call through
// to the frontend that declared it.
type ErrClientTool struct {
	Name string
}

func (e *ErrClientTool) Error() string {
	return fmt.Sprintf("tool: %s is a client-side tool and cannot run locally", e.Name)
}

// ErrToolAlreadyRegistered is returned when registering a duplicate tool name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}
