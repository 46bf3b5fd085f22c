package model

import "strings"

// Provider identifies the backend that serves a model.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	// ProviderUnknown is returned for identifiers no backend claims.
	ProviderUnknown Provider = ""
)

// String returns the provider name.
func (p Provider) String() string { return string(p) }

// ProviderOf returns the provider that serves the given model identifier.
// Routing is by identifier prefix, which is stable across model releases
// within a provider family.
func ProviderOf(id string) Provider {
	switch {
	case strings.HasPrefix(id, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(id, "gpt-"),
		strings.HasPrefix(id, "chatgpt-"),
		strings.HasPrefix(id, "o3"),
		strings.HasPrefix(id, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(id, "gemini-"):
		return ProviderGoogle
	default:
		return ProviderUnknown
	}
}
