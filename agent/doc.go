// Package agent provides an autonomous tool-calling wrapper around any
// [loom.Agent].
//
// An agent orchestrates a conversation loop where the model can request tool
// calls, which are executed through a [tool.Registry] and the results fed
// back to the model until it produces a final response without tool calls.
// Calls to tools the registry does not handle locally (client tools, or
// tools the frontend declared) end the turn instead, surfacing the pending
// calls to the caller.
//
// # Basic Usage
//
//	registry := tool.NewRegistry()
//	tool.MustBindTo(registry, "get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	    },
//	)
//
//	a := agent.New(upstream, registry)
//	resp, err := a.Run(ctx, messages, agent.WithMaxSteps(5))
//
// Use RunStream to observe updates as they happen:
//
//	updates, err := a.RunStream(ctx, messages)
//	for u := range updates {
//	    fmt.Print(u.Text())
//	}
//
// # Continuation
//
// When the upstream reports a conversation id, the agent switches to
// continuation mode: subsequent steps send only the new tool-result messages
// together with the id, instead of resending full history. Upstreams that
// hold state server-side use this to avoid duplicate history.
//
// # Human-in-the-Loop Approval
//
// Use WithApprover to require approval before tool execution:
//
//	resp, err := a.Run(ctx, messages,
//	    agent.WithApprover(func(ctx context.Context, call loom.ToolCall) (bool, string) {
//	        return confirm(call.Name), "rejected by operator"
//	    }),
//	)
//
// Rejected calls produce error tool results so the model can react.
package agent
