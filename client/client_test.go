package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/model"
)

func TestRunRequiresModel(t *testing.T) {
	c := New(Config{})

	_, err := c.Run(context.Background(), []loom.Message{loom.Message{Role: loom.RoleUser, Content: "hi"}})
	require.Error(t, err)

	var noModel *ErrNoModel
	assert.ErrorAs(t, err, &noModel)
}

func TestRunUnknownModel(t *testing.T) {
	c := New(Config{DefaultModel: "llama-3"})

	_, err := c.Run(context.Background(), []loom.Message{loom.Message{Role: loom.RoleUser, Content: "hi"}})
	require.Error(t, err)

	var unknown *ErrUnknownModel
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "llama-3", unknown.Model)
}

func TestRunMissingAPIKey(t *testing.T) {
	c := New(Config{DefaultModel: "claude-sonnet-4-5"})

	_, err := c.Run(context.Background(), []loom.Message{loom.Message{Role: loom.RoleUser, Content: "hi"}})
	require.Error(t, err)

	var missing *ErrMissingAPIKey
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ProviderAnthropic, missing.Provider)
	assert.Equal(t, "claude-sonnet-4-5", missing.Model)
}

func TestRunStreamMissingAPIKey(t *testing.T) {
	c := New(Config{APIKeys: APIKeys{Anthropic: "key"}})

	_, err := c.RunStream(context.Background(), []loom.Message{loom.Message{Role: loom.RoleUser, Content: "hi"}},
		loom.WithModel("gpt-5.2"))
	require.Error(t, err)

	var missing *ErrMissingAPIKey
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ProviderOpenAI, missing.Provider)
}

func TestOptionModelOverridesDefault(t *testing.T) {
	// The default routes to Anthropic, which has a key. The per-request
	// model routes to OpenAI, which does not, so resolution must follow
	// the override.
	c := New(Config{
		APIKeys:      APIKeys{Anthropic: "key"},
		DefaultModel: "claude-sonnet-4-5",
	})

	_, err := c.Run(context.Background(), []loom.Message{loom.Message{Role: loom.RoleUser, Content: "hi"}},
		loom.WithModel("gpt-5.2"))

	var missing *ErrMissingAPIKey
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.ProviderOpenAI, missing.Provider)
	assert.Equal(t, "gpt-5.2", missing.Model)
}

func TestConfigured(t *testing.T) {
	assert.False(t, New(Config{}).Configured())
	assert.True(t, New(Config{APIKeys: APIKeys{Google: "key"}}).Configured())
}

func TestDefaultRunOptionsApplied(t *testing.T) {
	// Defaults come first so per-request options win.
	c := New(Config{},
		WithDefaultTemperature(0.2),
		WithDefaultMaxTokens(128),
	)

	opts := loom.ApplyRunOptions(append(c.defaultOpts, loom.WithTemperature(0.9))...)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 0.9, *opts.Temperature)
	assert.Equal(t, 128, opts.MaxTokens)
}

func TestRetryConfigDefaults(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 5, cfg.MaxAttempts)

	disabled := DisabledRetryConfig()
	assert.Equal(t, 1, disabled.MaxAttempts)
}
