// Package google implements loom.Agent on top of the Google GenAI SDK.
package google

import (
	"context"
	"os"

	"google.golang.org/genai"

	"github.com/loomkit/loom"
)

// Client wraps the Google GenAI SDK to implement loom.Agent.
type Client struct {
	client *genai.Client
	model  string
	apiKey string
}

// New creates a new Google GenAI client. Without WithAPIKey the client reads
// the GEMINI_API_KEY environment variable. Unlike the other providers the
// underlying SDK performs setup work that can fail, so New returns an error.
func New(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:  DefaultModel,
		apiKey: os.Getenv("GEMINI_API_KEY"),
	}
	for _, opt := range opts {
		opt(c)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly instead of using the environment variable.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func (c *Client) params(messages []loom.Message, options *loom.RunOptions) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents, err := convertMessages(messages)
	if err != nil {
		return "", nil, nil, err
	}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}
	return model, contents, config, nil
}

// Run sends a conversation and returns the complete turn.
func (c *Client) Run(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (*loom.Response, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	options := loom.ApplyRunOptions(opts...)

	model, contents, config, err := c.params(messages, options)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}

	msg := loom.Message{
		ID:   loom.GenerateMessageID(),
		Role: loom.RoleAssistant,
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				msg.Content += part.Text
			}
		}
		msg.ToolCalls = extractToolCalls(resp.Candidates[0].Content.Parts)
	}

	out := &loom.Response{
		Messages:     []loom.Message{msg},
		FinishReason: finishReason(len(msg.ToolCalls) > 0),
	}
	if resp.UsageMetadata != nil {
		out.Usage = loom.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// RunStream sends a conversation and streams the turn as updates: text
// deltas as they arrive, tool calls once present, then a terminal update
// with the finish reason and usage.
func (c *Client) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	if len(messages) == 0 {
		return nil, loom.ErrEmptyInput
	}
	options := loom.ApplyRunOptions(opts...)

	model, contents, config, err := c.params(messages, options)
	if err != nil {
		return nil, err
	}

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

		fail := func(err error) {
			err = wrapError(err)
			emit(loom.Update{
				Role: loom.RoleAssistant,
				Contents: []loom.Content{loom.ErrorContent{
					Message: err.Error(),
					Code:    errorCode(err),
				}},
				FinishReason: loom.FinishError,
			})
		}

		messageID := loom.GenerateMessageID()
		var allParts []*genai.Part
		var usage *loom.Usage

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				fail(err)
				return
			}
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				fail(&BlockedError{Reason: string(resp.PromptFeedback.BlockReason)})
				return
			}

			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, part := range resp.Candidates[0].Content.Parts {
					allParts = append(allParts, part)
					if part.Text != "" {
						if !emit(loom.Update{
							Role:      loom.RoleAssistant,
							MessageID: messageID,
							Contents:  []loom.Content{loom.TextContent{Text: part.Text}},
						}) {
							return
						}
					}
				}
			}
			if resp.UsageMetadata != nil {
				usage = &loom.Usage{
					InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
					OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				}
			}
		}

		calls := extractToolCalls(allParts)
		for _, call := range calls {
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
			FinishReason: finishReason(len(calls) > 0),
			Usage:        usage,
		})
	}()

	return ch, nil
}

// finishReason maps the end of a Gemini turn to a loom finish reason.
// Gemini signals tool use through function call parts rather than a
// distinct stop reason.
func finishReason(hasToolCalls bool) loom.FinishReason {
	if hasToolCalls {
		return loom.FinishToolCalls
	}
	return loom.FinishStop
}

var _ loom.Agent = (*Client)(nil)
