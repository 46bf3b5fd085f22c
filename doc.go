// Package loom provides the core data model for building and hosting
// streaming conversational agents.
//
// The package defines three layers of types:
//
//   - [Message]: one entry of conversation history (user, assistant, system,
//     or tool role), the unit agents accept as input.
//   - [Update]: one increment of streamed agent output. A full turn is the
//     concatenation of all Updates until a terminal [FinishReason].
//   - [Content]: the tagged union carried by Updates (text deltas, tool
//     calls, tool results, errors).
//
// The [Agent] interface is the single invocation contract used throughout
// the module: providers implement it, the agent package wraps it with tool
// execution, and the agui package both serves it over HTTP and consumes it
// from a remote endpoint. Because every layer speaks the same interface, a
// remote agent reached through the AG-UI protocol is substitutable anywhere
// a local one is expected.
//
// # Basic Usage
//
// Stream a turn from any Agent:
//
//	updates, err := a.RunStream(ctx, []loom.Message{
//	    {Role: loom.RoleUser, Content: "What is the capital of France?"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for u := range updates {
//	    for _, c := range u.Contents {
//	        if t, ok := c.(loom.TextContent); ok {
//	            fmt.Print(t.Text)
//	        }
//	    }
//	}
//
// Or collect the turn into a complete response:
//
//	resp, err := a.Run(ctx, messages)
//
// # Higher-Level Packages
//
// For more complete stacks, see:
//
//   - [github.com/loomkit/loom/agent]: tool-invoking agent loop
//   - [github.com/loomkit/loom/agui]: AG-UI protocol server and client
//   - [github.com/loomkit/loom/client]: provider selection entry point
package loom
