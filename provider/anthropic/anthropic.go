// Package anthropic implements loom.Agent on top of the Anthropic SDK.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/loomkit/loom"
)

// Client wraps the Anthropic SDK to implement loom.Agent.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client. Without WithAPIKey the SDK reads the
// ANTHROPIC_API_KEY environment variable.
func New(opts ...ClientOption) *Client {
	c := &Client{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := anthropic.NewClient()
		c.client = &client
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly instead of using the environment variable.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := anthropic.NewClient(option.WithAPIKey(key))
		c.client = &client
	}
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) params(messages []loom.Message, options *loom.RunOptions) anthropic.MessageNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" && options.ToolChoice != loom.ToolChoiceNone {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}
	return params
}

// Run sends a conversation and returns the complete turn.
func (c *Client) Run(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (*loom.Response, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	options := loom.ApplyRunOptions(opts...)

	resp, err := c.client.Messages.New(ctx, c.params(messages, options))
	if err != nil {
		return nil, wrapError(err)
	}

	msg := loom.Message{
		ID:   resp.ID,
		Role: loom.RoleAssistant,
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, loom.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return &loom.Response{
		Messages:     []loom.Message{msg},
		FinishReason: finishReason(string(resp.StopReason)),
		Usage: loom.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// RunStream sends a conversation and streams the turn as updates: text
// deltas as they arrive, tool calls once their input is complete, then a
// terminal update with the finish reason and usage.
func (c *Client) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	options := loom.ApplyRunOptions(opts...)

	stream := c.client.Messages.NewStreaming(ctx, c.params(messages, options))
	ch := make(chan loom.Update, 16)

	go func() {
		defer close(ch)

		emit := func(u loom.Update) bool {
			select {
			case ch <- u:
				return true
			case <-ctx.Done():
				return false
			}
		}

		messageID := loom.GenerateMessageID()
		var acc anthropic.Message

		for stream.Next() {
			event := stream.Current()
			acc.Accumulate(event)

			if event.Type == "content_block_delta" {
				delta := event.AsContentBlockDelta()
				if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" {
					if !emit(loom.Update{
						Role:      loom.RoleAssistant,
						MessageID: messageID,
						Contents:  []loom.Content{loom.TextContent{Text: textDelta.Text}},
					}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			err = wrapError(err)
			emit(loom.Update{
				Role:      loom.RoleAssistant,
				MessageID: messageID,
				Contents: []loom.Content{loom.ErrorContent{
					Message: err.Error(),
					Code:    errorCode(err),
				}},
				FinishReason: loom.FinishError,
			})
			return
		}

		for _, block := range acc.Content {
			if block.Type == "tool_use" {
				if !emit(loom.Update{
					Role:      loom.RoleAssistant,
					MessageID: messageID,
					Contents: []loom.Content{loom.ToolCallContent{Call: loom.ToolCall{
						ID:        block.ID,
						Name:      block.Name,
						Arguments: string(block.Input),
					}}},
				}) {
					return
				}
			}
		}

		emit(loom.Update{
			Role:         loom.RoleAssistant,
			MessageID:    messageID,
			ResponseID:   acc.ID,
			FinishReason: finishReason(string(acc.StopReason)),
			Usage: &loom.Usage{
				InputTokens:  int(acc.Usage.InputTokens),
				OutputTokens: int(acc.Usage.OutputTokens),
			},
		})
	}()

	return ch, nil
}

func finishReason(stop string) loom.FinishReason {
	switch stop {
	case "tool_use":
		return loom.FinishToolCalls
	default:
		return loom.FinishStop
	}
}

var _ loom.Agent = (*Client)(nil)
