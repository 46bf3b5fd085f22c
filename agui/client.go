package agui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// Client talks to a remote AG-UI agent endpoint and implements loom.Agent,
// so a remote agent drops in anywhere a local one is expected, including
// under the agent package's tool-running loop.
//
// The wire protocol requires full history on every request, while the
// tool-running loop switches to sending only new messages once it sees a
// continuation id. Client therefore never exposes the thread id as a
// continuation id. Instead it stamps the id on the ThreadID side channel of
// every pending tool call it emits; the stamp survives the loop's history
// rebuild and is recovered from the assembled messages on the next request.
type Client struct {
	endpoint string
	http     *http.Client
	log      *slog.Logger

	mu           sync.Mutex
	lastThreadID string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClientLogger sets the logger for stream-level diagnostics.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ThreadID returns the thread id confirmed by the server's most recent run,
// or empty before the first run.
func (c *Client) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastThreadID
}

// Run executes one run and collects the stream into a response.
func (c *Client) Run(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (*loom.Response, error) {
	updates, err := c.RunStream(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return loom.CollectResponse(updates)
}

// RunStream executes one run and streams its updates.
//
// The thread id for the run is, in order of precedence: an id recovered from
// a stamped tool call in the history, the ConversationID option, the last id
// the server confirmed, or a freshly generated one. Whatever the server's
// RUN_STARTED declares wins from then on.
func (c *Client) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	ro := loom.ApplyRunOptions(opts...)

	threadID := recoverThreadID(messages)
	if threadID == "" {
		threadID = ro.ConversationID
	}
	if threadID == "" {
		threadID = c.ThreadID()
	}
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	runID := events.GenerateRunID()

	outbound, state, err := extractState(messages)
	if err != nil {
		return nil, err
	}

	input := &RunAgentInput{
		ThreadID: threadID,
		RunID:    runID,
		Messages: FromMessages(outbound),
		State:    state,
	}
	for _, t := range ro.Tools {
		input.Tools = append(input.Tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	if items, ok := ro.Extra[ExtraKeyContext].([]ContextItem); ok {
		input.Context = items
	}
	if props, ok := ro.Extra[ExtraKeyForwardedProps].(json.RawMessage); ok {
		input.ForwardedProps = props
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("agui: encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agui: build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agui: run request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if resp.StatusCode == http.StatusBadRequest {
			return nil, &MalformedRequestError{Reason: string(bytes.TrimSpace(detail))}
		}
		return nil, fmt.Errorf("agui: run request: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	out := make(chan loom.Update, 16)
	go c.stream(ctx, resp.Body, threadID, runID, out)
	return out, nil
}

func (c *Client) stream(ctx context.Context, body io.ReadCloser, threadID, runID string, out chan<- loom.Update) {
	defer close(out)
	defer body.Close()

	dec := NewDecoder(body)
	for u := range dec.Updates(ctx) {
		if u.ConversationID != "" {
			threadID = u.ConversationID
			c.mu.Lock()
			c.lastThreadID = threadID
			c.mu.Unlock()
		}
		// The continuation id stays off the update so tool-running layers
		// above keep sending full history.
		u.ConversationID = ""

		for i, content := range u.Contents {
			if tc, ok := content.(loom.ToolCallContent); ok {
				tc.Call.ThreadID = threadID
				u.Contents[i] = tc
			}
		}

		select {
		case out <- u:
		case <-ctx.Done():
			return
		}
	}

	if err := dec.Err(); err != nil && ctx.Err() == nil {
		c.log.Warn("run stream failed", "run_id", runID, "thread_id", threadID, "error", err)
	}
}

// recoverThreadID finds the most recent stamped tool call in the history.
func recoverThreadID(messages []loom.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		for _, tc := range messages[i].ToolCalls {
			if tc.ThreadID != "" {
				return tc.ThreadID
			}
		}
	}
	return ""
}

// extractState pulls a state payload off the last message's data part. The
// part is removed from the outbound copy; if the message carried nothing
// else it is dropped entirely.
func extractState(messages []loom.Message) ([]loom.Message, json.RawMessage, error) {
	last := messages[len(messages)-1]
	idx := -1
	for i, p := range last.Parts {
		if p.Type == loom.ContentPartTypeData {
			idx = i
			break
		}
	}
	if idx < 0 {
		return messages, nil, nil
	}

	var state json.RawMessage
	switch data := last.Parts[idx].Data.(type) {
	case json.RawMessage:
		state = data
	case []byte:
		state = data
	default:
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, nil, fmt.Errorf("agui: encode state: %w", err)
		}
		state = raw
	}

	stripped := last
	stripped.Parts = append(append([]loom.ContentPart(nil), last.Parts[:idx]...), last.Parts[idx+1:]...)

	outbound := append([]loom.Message(nil), messages[:len(messages)-1]...)
	if !stripped.IsEmpty() {
		outbound = append(outbound, stripped)
	}
	return outbound, state, nil
}
