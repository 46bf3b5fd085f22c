package google

// Gemini model identifiers.
const (
	Gemini3Pro       = "gemini-3.0-pro"
	Gemini3DeepThink = "gemini-3.0-deep-think"

	Gemini25Pro       = "gemini-2.5-pro"
	Gemini25Flash     = "gemini-2.5-flash"
	Gemini25FlashLite = "gemini-2.5-flash-lite"

	// DefaultModel is the recommended default.
	DefaultModel = Gemini25Flash
)
