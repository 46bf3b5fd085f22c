package main

import (
	"context"
	"fmt"
	"time"

	"github.com/loomkit/loom/tool"
)

// SetupDemoTools registers demo tools for testing the server.
// These tools are enabled by default (LOOM_DEMO_TOOLS=true).
func SetupDemoTools(registry *tool.Registry) {
	registry.Add(
		tool.Func("get_weather", "Get the current weather for a location",
			func(ctx context.Context, args struct {
				Location string `json:"location" desc:"City name, e.g. Paris" required:"true"`
			}) (string, error) {
				time.Sleep(50 * time.Millisecond) // simulated API latency
				return fmt.Sprintf(`{"location": %q, "temperature": 22, "conditions": "Sunny", "unit": "celsius"}`, args.Location), nil
			},
		),
		tool.Func("get_time", "Get the current time",
			func(ctx context.Context, args struct{}) (string, error) {
				return fmt.Sprintf(`{"time": %q, "timezone": "UTC"}`, time.Now().UTC().Format(time.RFC3339)), nil
			},
		),
		tool.Func("echo", "Echo back the input message (useful for testing)",
			func(ctx context.Context, args struct {
				Message string `json:"message" desc:"Message to echo back" required:"true"`
			}) (string, error) {
				return fmt.Sprintf(`{"echo": %q}`, args.Message), nil
			},
		),
	)
}
