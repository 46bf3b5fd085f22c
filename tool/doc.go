// Package tool provides tool registration and execution infrastructure.
//
// A [Registry] holds tool definitions together with their handlers and is
// consulted by agent layers when the model requests tool execution. Tools
// registered with a handler run locally; tools registered via
// [Registry.RegisterClientTool] are definitions only, and calls to them are
// passed through to whatever frontend declared them.
//
// # Basic Usage
//
// Define tool arguments as a struct with tags, then use Bind or BindTo:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Unit     string `json:"unit" desc:"Temperature unit" enum:"celsius,fahrenheit"`
//	}
//
//	t, h := tool.MustBind("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	    })
//
//	registry := tool.NewRegistry()
//	registry.MustRegister(t, h)
//
// Or use the fluent form:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather", weatherFn),
//	    tool.Func("search", "Search the web", searchFn),
//	)
//
// # Supported Struct Tags
//
// Schema generation honors these tags:
//
//	json:"name"      - Property name (required for inclusion)
//	desc:"text"      - Description for the model
//	required:"true"  - Mark field as required
//	enum:"a,b,c"     - Allowed values (comma-separated)
package tool
