package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/internal/retry"
	"github.com/loomkit/loom/model"
	"github.com/loomkit/loom/provider/anthropic"
	"github.com/loomkit/loom/provider/google"
	"github.com/loomkit/loom/provider/openai"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Config holds configuration for creating a unified client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	// Only configure keys for providers you intend to use.
	APIKeys APIKeys

	// DefaultModel is used when a request carries no model.
	// Its provider determines which backend serves the request.
	DefaultModel string

	// RetryConfig configures retry behavior for transient errors.
	// If nil, uses the default configuration (10 attempts with
	// exponential backoff).
	RetryConfig *RetryConfig

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// ErrMissingAPIKey is returned when a model is used but no API key
// is configured for that model's provider.
type ErrMissingAPIKey struct {
	Provider model.Provider
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct{}

func (e *ErrNoModel) Error() string {
	return "no model specified: set client.Config DefaultModel or use loom.WithModel()"
}

// ErrUnknownModel is returned when a model identifier matches no provider.
type ErrUnknownModel struct {
	Model string
}

func (e *ErrUnknownModel) Error() string {
	return fmt.Sprintf("no provider serves model %q", e.Model)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultOpts = append(c.defaultOpts, loom.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for requests.
// Per-request options override this default.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultOpts = append(c.defaultOpts, loom.WithMaxTokens(n))
	}
}

// WithDefaultRunOptions sets default options for all requests.
// Per-request options override these defaults.
func WithDefaultRunOptions(opts ...loom.RunOption) ClientOption {
	return func(c *Client) {
		c.defaultOpts = append(c.defaultOpts, opts...)
	}
}

// Client routes invocations to provider backends by model identifier and
// retries transient failures. It implements loom.Agent, so it can sit
// anywhere a single-provider client can: under an agent loop, behind an
// AG-UI handler, or standalone.
//
// Provider clients are lazily initialized when first needed.
type Client struct {
	apiKeys      APIKeys
	defaultModel string
	retryConfig  retry.Config
	events       chan<- Event
	defaultOpts  []loom.RunOption

	mu              sync.RWMutex
	anthropicClient *anthropic.Client
	openaiClient    *openai.Client
	googleClient    *google.Client
	googleInitErr   error
}

// New creates a unified client with the given configuration.
// Provider clients are lazily initialized when first needed based on the
// model used.
func New(cfg Config, opts ...ClientOption) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}

	c := &Client{
		apiKeys:      cfg.APIKeys,
		defaultModel: cfg.DefaultModel,
		retryConfig:  retryConfig,
		events:       cfg.Events,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getAnthropic() (*anthropic.Client, error) {
	c.mu.RLock()
	if c.anthropicClient != nil {
		defer c.mu.RUnlock()
		return c.anthropicClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.anthropicClient != nil {
		return c.anthropicClient, nil
	}
	if c.apiKeys.Anthropic == "" {
		return nil, &ErrMissingAPIKey{Provider: model.ProviderAnthropic}
	}
	c.anthropicClient = anthropic.New(anthropic.WithAPIKey(c.apiKeys.Anthropic))
	return c.anthropicClient, nil
}

func (c *Client) getOpenAI() (*openai.Client, error) {
	c.mu.RLock()
	if c.openaiClient != nil {
		defer c.mu.RUnlock()
		return c.openaiClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openaiClient != nil {
		return c.openaiClient, nil
	}
	if c.apiKeys.OpenAI == "" {
		return nil, &ErrMissingAPIKey{Provider: model.ProviderOpenAI}
	}
	c.openaiClient = openai.New(openai.WithAPIKey(c.apiKeys.OpenAI))
	return c.openaiClient, nil
}

func (c *Client) getGoogle(ctx context.Context) (*google.Client, error) {
	c.mu.RLock()
	if c.googleClient != nil {
		defer c.mu.RUnlock()
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		defer c.mu.RUnlock()
		return nil, c.googleInitErr
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.googleClient != nil {
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		return nil, c.googleInitErr
	}
	if c.apiKeys.Google == "" {
		return nil, &ErrMissingAPIKey{Provider: model.ProviderGoogle}
	}

	client, err := google.New(ctx, google.WithAPIKey(c.apiKeys.Google))
	if err != nil {
		c.googleInitErr = fmt.Errorf("initialize google client: %w", err)
		return nil, c.googleInitErr
	}
	c.googleClient = client
	return c.googleClient, nil
}

// resolve picks the model for a request and the backend that serves it.
func (c *Client) resolve(ctx context.Context, options *loom.RunOptions) (loom.Agent, string, model.Provider, error) {
	id := options.Model
	if id == "" {
		id = c.defaultModel
	}
	if id == "" {
		return nil, "", "", &ErrNoModel{}
	}

	provider := model.ProviderOf(id)
	switch provider {
	case model.ProviderAnthropic:
		backend, err := c.getAnthropic()
		if err != nil {
			return nil, "", "", withModel(err, id)
		}
		return backend, id, provider, nil
	case model.ProviderOpenAI:
		backend, err := c.getOpenAI()
		if err != nil {
			return nil, "", "", withModel(err, id)
		}
		return backend, id, provider, nil
	case model.ProviderGoogle:
		backend, err := c.getGoogle(ctx)
		if err != nil {
			return nil, "", "", withModel(err, id)
		}
		return backend, id, provider, nil
	default:
		return nil, "", "", &ErrUnknownModel{Model: id}
	}
}

func withModel(err error, id string) error {
	if missing, ok := err.(*ErrMissingAPIKey); ok {
		missing.Model = id
	}
	return err
}

// Run sends a conversation to the provider serving the requested model and
// returns the collected turn. Transient errors are retried according to the
// client's retry configuration.
func (c *Client) Run(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (*loom.Response, error) {
	opts = append(c.defaultOpts, opts...)
	options := loom.ApplyRunOptions(opts...)

	backend, id, provider, err := c.resolve(ctx, options)
	if err != nil {
		return nil, err
	}
	if options.Model == "" {
		opts = append(opts, loom.WithModel(id))
	}

	start := time.Now()
	emit(c.events, Event{
		Type:      EventRequestStart,
		Operation: "run",
		Provider:  provider,
		Model:     id,
	})

	var retryEvents chan retry.Event
	if c.events != nil {
		retryEvents = make(chan retry.Event, 10)
		go c.forwardRetryEvents(retryEvents, "run", provider, id)
	}

	resp, err := retry.DoWithEvents(ctx, c.retryConfig, retryEvents, func() (*loom.Response, error) {
		return backend.Run(ctx, messages, opts...)
	})

	if retryEvents != nil {
		close(retryEvents)
	}

	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "run",
			Provider:  provider,
			Model:     id,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	var usage *loom.Usage
	if resp != nil {
		usage = &resp.Usage
	}
	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "run",
		Provider:  provider,
		Model:     id,
		Duration:  time.Since(start),
		Usage:     usage,
	})
	return resp, nil
}

// RunStream sends a conversation to the provider serving the requested model
// and returns a channel of updates. Transient errors are retried when
// establishing the stream; failures mid-stream are delivered in-band.
func (c *Client) RunStream(ctx context.Context, messages []loom.Message, opts ...loom.RunOption) (<-chan loom.Update, error) {
	opts = append(c.defaultOpts, opts...)
	options := loom.ApplyRunOptions(opts...)

	backend, id, provider, err := c.resolve(ctx, options)
	if err != nil {
		return nil, err
	}
	if options.Model == "" {
		opts = append(opts, loom.WithModel(id))
	}

	start := time.Now()
	emit(c.events, Event{
		Type:      EventRequestStart,
		Operation: "run_stream",
		Provider:  provider,
		Model:     id,
	})

	var retryEvents chan retry.Event
	if c.events != nil {
		retryEvents = make(chan retry.Event, 10)
		go c.forwardRetryEvents(retryEvents, "run_stream", provider, id)
	}

	ch, err := retry.DoStreamWithEvents(ctx, c.retryConfig, retryEvents, func() (<-chan loom.Update, error) {
		return backend.RunStream(ctx, messages, opts...)
	})

	if retryEvents != nil {
		close(retryEvents)
	}

	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: "run_stream",
			Provider:  provider,
			Model:     id,
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: "run_stream",
		Provider:  provider,
		Model:     id,
		Duration:  time.Since(start),
	})
	return ch, nil
}

// Configured returns true if at least one provider has an API key.
func (c *Client) Configured() bool {
	return c.apiKeys.Anthropic != "" || c.apiKeys.OpenAI != "" || c.apiKeys.Google != ""
}

// forwardRetryEvents reads from a retry events channel and forwards events
// to the client's event channel as EventRetry events.
func (c *Client) forwardRetryEvents(retryEvents <-chan retry.Event, operation string, provider model.Provider, id string) {
	for re := range retryEvents {
		reCopy := re
		emit(c.events, Event{
			Type:       EventRetry,
			Operation:  operation,
			Provider:   provider,
			Model:      id,
			RetryEvent: &reCopy,
		})
	}
}

var _ loom.Agent = (*Client)(nil)
