package agui

import "github.com/loomkit/loom"

// Partition splits a turn's tool-call batch by who executes the calls.
//
// Tool calls and results are held back until the turn's terminal update. If
// the turn ends in tool calls and the batch mixes frontend tools with calls
// the agent resolved itself, the resolved calls are folded together with
// their results into opaque loom.ServerToolContent items, so a tool-running
// layer downstream executes the frontend calls and never re-invokes the
// resolved ones. A batch that is purely one kind, or a turn with no tool
// calls, passes through unchanged.
//
// Everything else is forwarded as it arrives, in order. The returned channel
// closes when in closes.
func Partition(in <-chan loom.Update, clientTools []string) <-chan loom.Update {
	client := make(map[string]bool, len(clientTools))
	for _, name := range clientTools {
		client[name] = true
	}

	out := make(chan loom.Update, cap(in))
	go func() {
		defer close(out)

		type held struct {
			update  loom.Update
			content loom.Content
		}
		var batch []held

		flush := func(mixed bool) {
			// Only results owned by an agent-resolved call in this batch fold
			// into a ServerToolContent; every other result passes through.
			results := make(map[string]loom.ToolResult)
			if mixed {
				server := make(map[string]bool)
				for _, h := range batch {
					if c, ok := h.content.(loom.ToolCallContent); ok && !client[c.Call.Name] {
						server[c.Call.ID] = true
					}
				}
				for _, h := range batch {
					if r, ok := h.content.(loom.ToolResultContent); ok && server[r.Result.ToolCallID] {
						results[r.Result.ToolCallID] = r.Result
					}
				}
			}
			for _, h := range batch {
				u := h.update
				switch c := h.content.(type) {
				case loom.ToolCallContent:
					if mixed && !client[c.Call.Name] {
						u.Contents = []loom.Content{loom.ServerToolContent{
							Call:   c.Call,
							Result: results[c.Call.ID],
						}}
					} else {
						u.Contents = []loom.Content{c}
					}
				case loom.ToolResultContent:
					if mixed {
						if _, paired := results[c.Result.ToolCallID]; paired {
							continue
						}
					}
					u.Contents = []loom.Content{c}
				default:
					u.Contents = []loom.Content{h.content}
				}
				out <- u
			}
			batch = nil
		}

		isMixed := func() bool {
			var hasClient, hasServer bool
			for _, h := range batch {
				switch c := h.content.(type) {
				case loom.ToolCallContent:
					if client[c.Call.Name] {
						hasClient = true
					} else {
						hasServer = true
					}
				case loom.ServerToolContent:
					hasServer = true
				}
			}
			return hasClient && hasServer
		}

		for u := range in {
			var pass []loom.Content
			for _, c := range u.Contents {
				switch c.(type) {
				case loom.ToolCallContent, loom.ToolResultContent, loom.ServerToolContent:
					shell := u
					shell.Contents = nil
					shell.FinishReason = loom.FinishNone
					shell.Usage = nil
					batch = append(batch, held{update: shell, content: c})
				default:
					pass = append(pass, c)
				}
			}

			if u.FinishReason != loom.FinishNone {
				flush(u.FinishReason == loom.FinishToolCalls && isMixed())
				u.Contents = pass
				out <- u
				continue
			}

			if len(pass) > 0 || len(u.Contents) == 0 {
				u.Contents = pass
				out <- u
			}
		}

		// Closed without a terminal update. Release anything held so the
		// consumer sees the truncation, not a swallowed batch.
		flush(false)
	}()
	return out
}
