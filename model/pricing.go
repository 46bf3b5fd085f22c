package model

import "github.com/loomkit/loom"

// Pricing last verified: December 14, 2025.
// Sources: provider pricing pages for Anthropic, OpenAI, and Google.

// ChatPricing contains pricing per million tokens (USD) for chat models.
// Fields are zero if not applicable to a specific provider's model.
type ChatPricing struct {
	// InputPerMillion is the standard input token pricing (all providers).
	InputPerMillion float64
	// OutputPerMillion is the standard output token pricing (all providers).
	OutputPerMillion float64
	// CachedInputPerMillion is for cached/prompt-cached input tokens (OpenAI only).
	// Check HasCachedPricing() before using.
	CachedInputPerMillion float64
	// InputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	InputPerMillionLong float64
	// OutputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	OutputPerMillionLong float64
}

// HasCachedPricing returns true if the model supports cached input pricing.
func (p ChatPricing) HasCachedPricing() bool {
	return p.CachedInputPerMillion > 0
}

// HasLongContextPricing returns true if the model has tiered pricing for long context.
func (p ChatPricing) HasLongContextPricing() bool {
	return p.InputPerMillionLong > 0 || p.OutputPerMillionLong > 0
}

// Cost estimates the USD cost of the given usage at standard rates.
func (p ChatPricing) Cost(usage loom.Usage) float64 {
	return float64(usage.InputTokens)/1e6*p.InputPerMillion +
		float64(usage.OutputTokens)/1e6*p.OutputPerMillion
}

var chatPricing = map[string]ChatPricing{
	// Anthropic Claude 4.5 family. Pinned versions share alias pricing.
	"claude-opus-4-5":            {InputPerMillion: 5.00, OutputPerMillion: 25.00},
	"claude-sonnet-4-5":          {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5":           {InputPerMillion: 1.00, OutputPerMillion: 5.00},
	"claude-opus-4-5-20251101":   {InputPerMillion: 5.00, OutputPerMillion: 25.00},
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 1.00, OutputPerMillion: 5.00},

	// OpenAI GPT-5 family.
	"gpt-5.2":     {InputPerMillion: 1.75, OutputPerMillion: 14.00, CachedInputPerMillion: 0.175},
	"gpt-5.2-pro": {InputPerMillion: 3.50, OutputPerMillion: 28.00, CachedInputPerMillion: 0.35},
	"gpt-5.1":     {InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125},
	"gpt-5.1-mini": {InputPerMillion: 0.30, OutputPerMillion: 1.25, CachedInputPerMillion: 0.03},
	"gpt-5":       {InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125},
	"gpt-5-mini":  {InputPerMillion: 0.25, OutputPerMillion: 1.00, CachedInputPerMillion: 0.025},
	"gpt-5-nano":  {InputPerMillion: 0.10, OutputPerMillion: 0.40, CachedInputPerMillion: 0.01},

	// Google Gemini.
	"gemini-3.0-pro":        {InputPerMillion: 2.00, OutputPerMillion: 12.00, InputPerMillionLong: 4.00, OutputPerMillionLong: 18.00},
	"gemini-3.0-deep-think": {InputPerMillion: 4.00, OutputPerMillion: 24.00, InputPerMillionLong: 8.00, OutputPerMillionLong: 36.00},
	"gemini-2.5-pro":        {InputPerMillion: 1.25, OutputPerMillion: 10.00, InputPerMillionLong: 2.50, OutputPerMillionLong: 15.00},
	"gemini-2.5-flash":      {InputPerMillion: 0.15, OutputPerMillion: 0.60, InputPerMillionLong: 0.15, OutputPerMillionLong: 0.60},
	"gemini-2.5-flash-lite": {InputPerMillion: 0.075, OutputPerMillion: 0.30, InputPerMillionLong: 0.075, OutputPerMillionLong: 0.30},
}

// PricingFor returns the pricing table entry for a model identifier.
// The second return value is false if no pricing is known.
func PricingFor(id string) (ChatPricing, bool) {
	p, ok := chatPricing[id]
	return p, ok
}
