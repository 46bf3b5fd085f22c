package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/internal/store"
	"github.com/loomkit/loom/tool"
)

// Agent orchestrates autonomous tool-calling conversations over any upstream
// [loom.Agent]. It implements [loom.Agent] itself, so agents compose.
type Agent struct {
	upstream loom.Agent
	registry *tool.Registry
	opts     *Options
}

// New creates a new Agent wrapping the given upstream with the tool registry.
// Options configure loop behavior for every run of this agent.
func New(upstream loom.Agent, registry *tool.Registry, opts ...Option) *Agent {
	return &Agent{
		upstream: upstream,
		registry: registry,
		opts:     ApplyOptions(opts...),
	}
}

// Run executes the agent loop and returns the collected final turn.
func (a *Agent) Run(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (*loom.Response, error) {
	ch, err := a.RunStream(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return loom.CollectResponse(ch)
}

// RunStream executes the agent loop and returns a channel of updates. The
// channel is closed when the loop completes. Tool results produced locally
// are emitted as updates, so callers observe the full turn including
// intermediate steps.
func (a *Agent) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}

	out := make(chan loom.Update, 16)
	go a.runLoop(ctx, messages, out, opts)
	return out, nil
}

func (a *Agent) runLoop(ctx context.Context, messages []loom.Message, out chan<- loom.Update, callOpts []loom.RunOption) {
	defer close(out)

	options := a.opts
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	baseOpts := make([]loom.RunOption, 0, len(options.RunOptions)+len(callOpts)+1)
	baseOpts = append(baseOpts, loom.WithTools(a.registry.Tools()))
	baseOpts = append(baseOpts, options.RunOptions...)
	baseOpts = append(baseOpts, callOpts...)

	history := store.NewMessageStoreFrom(messages, nil)

	conversationID := loom.ApplyRunOptions(callOpts...).ConversationID
	var pending []loom.Message

	fail := func(err error, code string) {
		emit(ctx, out, loom.Update{
			Contents:       []loom.Content{loom.ErrorContent{Message: err.Error(), Code: code}},
			ConversationID: conversationID,
			FinishReason:   loom.FinishError,
		})
	}

	for step := 1; ; step++ {
		if options.MaxSteps > 0 && step > options.MaxSteps {
			fail(ErrMaxStepsReached, "max_steps")
			return
		}

		// In continuation mode the upstream already holds earlier history,
		// so send only the messages produced since the last step.
		send := history.Messages()
		stepOpts := baseOpts
		if conversationID != "" {
			if step > 1 {
				send = pending
			}
			stepOpts = append(stepOpts[:len(stepOpts):len(stepOpts)], loom.WithConversation(conversationID))
		}

		ch, err := a.upstream.RunStream(ctx, send, stepOpts...)
		if err != nil {
			fail(err, "upstream")
			return
		}

		var stepUpdates []loom.Update
		var terminal loom.Update
		sawTerminal := false
		failed := false

		for u := range ch {
			stepUpdates = append(stepUpdates, u)
			if u.ConversationID != "" {
				conversationID = u.ConversationID
			}
			for _, c := range u.Contents {
				if _, ok := c.(loom.ErrorContent); ok {
					failed = true
				}
			}
			// The terminal update is held back until we know whether the
			// loop continues, so callers never see a finish mid-turn.
			if u.FinishReason != loom.FinishNone {
				terminal = u
				sawTerminal = true
				continue
			}
			if !emit(ctx, out, u) {
				return
			}
		}

		if !sawTerminal {
			fail(errors.New("upstream stream ended without a finish reason"), "transport")
			return
		}
		if failed {
			emit(ctx, out, terminal)
			return
		}

		stepMsgs := loom.MessagesFromUpdates(stepUpdates)
		stepResp := &loom.Response{
			Messages:       stepMsgs,
			FinishReason:   terminal.FinishReason,
			ConversationID: conversationID,
		}

		var local, external []loom.ToolCall
		for _, tc := range stepResp.PendingToolCalls() {
			if h, ok := a.registry.Get(tc.Name); ok && h != nil {
				local = append(local, tc)
			} else {
				external = append(external, tc)
			}
		}

		stopped := options.StopPredicate != nil && options.StopPredicate(step, stepResp)

		if terminal.FinishReason != loom.FinishToolCalls || len(local) == 0 || stopped {
			// Natural completion, a custom stop, or a batch that is
			// entirely the caller's to execute.
			emit(ctx, out, terminal)
			return
		}

		cont := terminal
		cont.FinishReason = loom.FinishNone
		if !emit(ctx, out, cont) {
			return
		}

		results, allRejected := a.executeCalls(ctx, local, out)

		history.Append(stepMsgs...)
		resultMsg := loom.NewToolResultMessage(results...)
		history.Append(resultMsg)
		pending = []loom.Message{resultMsg}

		if allRejected {
			fail(ErrAllToolsRejected, "rejected")
			return
		}

		if len(external) > 0 {
			// Local calls ran; the remaining calls belong to the caller.
			emit(ctx, out, loom.Update{
				ConversationID: conversationID,
				FinishReason:   loom.FinishToolCalls,
			})
			return
		}
	}
}

// executeCalls runs approved local tool calls and emits their results as
// tool-role updates. Returns the results in call order and whether every
// call was rejected by the approver.
func (a *Agent) executeCalls(ctx context.Context, calls []loom.ToolCall, out chan<- loom.Update) ([]loom.ToolResult, bool) {
	options := a.opts
	results := make([]loom.ToolResult, len(calls))
	approved := make([]bool, len(calls))
	approvedCount := 0

	for i, tc := range calls {
		if a.requiresApproval(tc.Name) {
			ok, reason := options.Approver(ctx, tc)
			if !ok {
				if reason == "" {
					reason = "tool call rejected"
				}
				results[i] = loom.ToolResult{ToolCallID: tc.ID, Content: reason, IsError: true}
				continue
			}
		}
		approved[i] = true
		approvedCount++
	}

	if options.ParallelToolCalls && approvedCount > 1 {
		var wg sync.WaitGroup
		for i := range calls {
			if !approved[i] {
				continue
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = a.executeCall(ctx, calls[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range calls {
			if approved[i] {
				results[i] = a.executeCall(ctx, calls[i])
			}
		}
	}

	for i := range results {
		if !emit(ctx, out, loom.Update{
			Role:     loom.RoleTool,
			Contents: []loom.Content{loom.ToolResultContent{Result: results[i]}},
		}) {
			break
		}
	}

	return results, approvedCount == 0
}

func (a *Agent) executeCall(ctx context.Context, tc loom.ToolCall) loom.ToolResult {
	if a.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.HandlerTimeout)
		defer cancel()
	}

	result, err := a.registry.Execute(ctx, tc)
	if err != nil {
		return loom.ToolResult{ToolCallID: tc.ID, Content: err.Error(), IsError: true}
	}
	return result
}

func (a *Agent) requiresApproval(toolName string) bool {
	if a.opts.Approver == nil {
		return false
	}
	if len(a.opts.ApprovalRequired) == 0 {
		return true
	}
	for _, name := range a.opts.ApprovalRequired {
		if name == toolName {
			return true
		}
	}
	return false
}

func emit(ctx context.Context, out chan<- loom.Update, u loom.Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
