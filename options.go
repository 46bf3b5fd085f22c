package loom

// RunOptions contains configuration for a single agent invocation.
type RunOptions struct {
	// Model overrides the producer's default model, when applicable.
	Model string

	// MaxTokens caps generation length. Zero means producer default.
	MaxTokens int

	// Temperature sets the sampling temperature (0.0 to 2.0).
	Temperature *float64

	// Tools declares the tools available for this invocation.
	Tools []Tool

	// ToolChoice controls how the model uses the declared tools.
	ToolChoice ToolChoice

	// ConversationID is a continuation token. Producers that hold
	// conversation state server-side accept it in place of full history;
	// layers that see a non-empty value may send only new messages.
	ConversationID string

	// Extra is an additional-properties bag for values that cross layers
	// without widening the typed surface. Protocol bridges reserve keys
	// under the "agui." prefix.
	Extra map[string]any
}

// RunOption is a functional option for configuring an invocation.
type RunOption func(*RunOptions)

// WithModel sets the model to use for the request.
func WithModel(model string) RunOption {
	return func(o *RunOptions) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) RunOption {
	return func(o *RunOptions) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) RunOption {
	return func(o *RunOptions) {
		o.Temperature = &t
	}
}

// WithTools declares tools for the invocation.
func WithTools(tools []Tool) RunOption {
	return func(o *RunOptions) {
		o.Tools = append(o.Tools, tools...)
	}
}

// WithToolChoice controls tool selection behavior.
func WithToolChoice(choice ToolChoice) RunOption {
	return func(o *RunOptions) {
		o.ToolChoice = choice
	}
}

// WithConversation sets the continuation token for the invocation.
func WithConversation(id string) RunOption {
	return func(o *RunOptions) {
		o.ConversationID = id
	}
}

// WithExtra attaches one additional property to the invocation.
func WithExtra(key string, value any) RunOption {
	return func(o *RunOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
	}
}

// ApplyRunOptions applies functional options to a RunOptions struct.
func ApplyRunOptions(opts ...RunOption) *RunOptions {
	o := &RunOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
