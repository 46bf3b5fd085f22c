// Package openai implements loom.Agent on top of the OpenAI SDK.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loomkit/loom"
)

// Client wraps the OpenAI SDK to implement loom.Agent.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client. Without WithAPIKey the SDK reads the
// OPENAI_API_KEY environment variable.
func New(opts ...ClientOption) *Client {
	c := &Client{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := openai.NewClient()
		c.client = &client
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly instead of using the environment variable.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := openai.NewClient(option.WithAPIKey(key))
		c.client = &client
	}
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) params(messages []loom.Message, options *loom.RunOptions) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
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

	resp, err := c.client.Chat.Completions.New(ctx, c.params(messages, options))
	if err != nil {
		return nil, wrapError(err)
	}

	choice := resp.Choices[0]
	msg := loom.Message{
		ID:        loom.GenerateMessageID(),
		Role:      loom.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: extractToolCalls(choice.Message.ToolCalls),
	}

	return &loom.Response{
		Messages:     []loom.Message{msg},
		FinishReason: finishReason(string(choice.FinishReason)),
		Usage: loom.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// RunStream sends a conversation and streams the turn as updates.
func (c *Client) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	options := loom.ApplyRunOptions(opts...)

	params := c.params(messages, options)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
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
		var acc openai.ChatCompletionAccumulator

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !emit(loom.Update{
					Role:      loom.RoleAssistant,
					MessageID: messageID,
					Contents:  []loom.Content{loom.TextContent{Text: chunk.Choices[0].Delta.Content}},
				}) {
					return
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

		choice := acc.Choices[0]
		for _, call := range extractToolCalls(choice.Message.ToolCalls) {
			if !emit(loom.Update{
				Role:      loom.RoleAssistant,
				MessageID: messageID,
				Contents:  []loom.Content{loom.ToolCallContent{Call: call}},
			}) {
				return
			}
		}

		emit(loom.Update{
			Role:         loom.RoleAssistant,
			MessageID:    messageID,
			ResponseID:   acc.ID,
			FinishReason: finishReason(string(choice.FinishReason)),
			Usage: &loom.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		})
	}()

	return ch, nil
}

func finishReason(reason string) loom.FinishReason {
	switch reason {
	case "tool_calls", "function_call":
		return loom.FinishToolCalls
	default:
		return loom.FinishStop
	}
}

var _ loom.Agent = (*Client)(nil)
