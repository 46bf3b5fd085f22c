package anthropic

// Claude 4.5 family. Aliases auto-update; use pinned versions for
// production stability.
const (
	ClaudeOpus45   = "claude-opus-4-5"
	ClaudeSonnet45 = "claude-sonnet-4-5"
	ClaudeHaiku45  = "claude-haiku-4-5"

	ClaudeOpus45_20251101   = "claude-opus-4-5-20251101"
	ClaudeSonnet45_20250929 = "claude-sonnet-4-5-20250929"
	ClaudeHaiku45_20251001  = "claude-haiku-4-5-20251001"

	// DefaultModel is the recommended default.
	DefaultModel = ClaudeSonnet45
)
