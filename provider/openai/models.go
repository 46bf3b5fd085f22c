package openai

// GPT-5 family chat models.
const (
	GPT52    = "gpt-5.2"
	GPT52Pro = "gpt-5.2-pro"

	GPT51     = "gpt-5.1"
	GPT51Mini = "gpt-5.1-mini"

	GPT5     = "gpt-5"
	GPT5Mini = "gpt-5-mini"
	GPT5Nano = "gpt-5-nano"

	// DefaultModel is the recommended default.
	DefaultModel = GPT52
)
