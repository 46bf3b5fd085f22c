// Package client provides a unified multi-provider front end for agent
// invocations.
//
// The Client routes each request to a provider backend by model identifier
// and adds:
//
//   - Model-centric routing: the identifier determines the backend
//   - Automatic retries: exponential backoff for transient errors
//   - Event emission: observable operations via channel
//
// It implements loom.Agent, so it composes with everything else in the
// module: wrap it in an agent loop for tool execution, or put it behind an
// agui.Handler to serve it over the wire.
//
// # Basic Usage
//
// Create a client with API keys and a default model:
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	        OpenAI:    os.Getenv("OPENAI_API_KEY"),
//	    },
//	    DefaultModel: anthropic.ClaudeSonnet45,
//	})
//
//	resp, err := c.Run(ctx, []loom.Message{
//	    {Role: loom.RoleUser, Content: "Hello!"},
//	})
//
// # Model-Centric Routing
//
// The model identifier determines the backend:
//
//	// Uses the default model (routes to Anthropic)
//	resp, _ := c.Run(ctx, messages)
//
//	// Override with GPT-5.2 (routes to OpenAI)
//	resp, _ := c.Run(ctx, messages, loom.WithModel(openai.GPT52))
//
//	// Override with Gemini (routes to Google)
//	resp, _ := c.Run(ctx, messages, loom.WithModel(google.Gemini25Flash))
//
// # Retry Configuration
//
// The client automatically retries transient errors (rate limits, timeouts,
// 5xx errors). Customize retry behavior:
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    RetryConfig: &client.RetryConfig{
//	        MaxAttempts:  5,
//	        InitialDelay: 500 * time.Millisecond,
//	        MaxDelay:     30 * time.Second,
//	    },
//	})
//
// # Events
//
// Observe operations via an event channel:
//
//	events := make(chan client.Event, 100)
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Events:  events,
//	})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Operation, e.Duration)
//	    }
//	}()
package client
