package tool

import (
	"context"
	"sync"

	"github.com/loomkit/loom"
)

// registeredTool combines a tool definition with its handler.
type registeredTool struct {
	tool     loom.Tool
	handler  Handler
	isClient bool // client-side tools have no local handler
}

// Registry manages registered tools and their handlers.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(t loom.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: t.Name}
	}

	r.tools[t.Name] = registeredTool{
		tool:    t,
		handler: handler,
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t loom.Tool, handler Handler) {
	if err := r.Register(t, handler); err != nil {
		panic(err)
	}
}

// RegisterClientTool registers a tool definition without a handler.
// Client tools are executed by the frontend, not this process. An agent
// that encounters a call to a client tool surfaces the call to its caller
// instead of executing it.
func (r *Registry) RegisterClientTool(t loom.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: t.Name}
	}

	r.tools[t.Name] = registeredTool{
		tool:     t,
		isClient: true,
	}
	return nil
}

// RegisterClientTools registers multiple client tool definitions.
func (r *Registry) RegisterClientTools(tools []loom.Tool) error {
	for _, t := range tools {
		if err := r.RegisterClientTool(t); err != nil {
			return err
		}
	}
	return nil
}

// IsClientTool returns true if the named tool is a client-side tool.
func (r *Registry) IsClientTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return ok && rt.isClient
}

// ClientToolNames returns the names of all registered client tools.
func (r *Registry) ClientToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, rt := range r.tools {
		if rt.isClient {
			names = append(names, name)
		}
	}
	return names
}

// Unregister removes a tool from the registry.
// It is a no-op if the tool is not registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// GetTool retrieves a tool definition by name.
func (r *Registry) GetTool(name string) (loom.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return loom.Tool{}, false
	}
	return rt.tool, true
}

// Tools returns all registered tool definitions, including client tools.
// This is used to declare the tools to the model.
func (r *Registry) Tools() []loom.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]loom.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	return tools
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the handler for a tool call and returns a ToolResult.
// If the tool is not found, returns ErrToolNotFound. If the tool is a
// client-side tool, returns ErrClientTool. A handler error is captured in
// ToolResult.IsError with the message as content, so the model can recover.
func (r *Registry) Execute(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return loom.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	if rt.isClient {
		return loom.ToolResult{}, &ErrClientTool{Name: call.Name}
	}

	content, err := rt.handler(ctx, call)
	if err != nil {
		return loom.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}, nil
	}

	return loom.ToolResult{
		ToolCallID: call.ID,
		Content:    content,
	}, nil
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool    loom.Tool
	Handler Handler
}

// Func creates a Registration with automatic schema generation from the
// typed handler. Panics if schema generation fails.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	t, h := MustBind(name, description, fn)
	return Registration{Tool: t, Handler: h}
}

// WithTool creates a Registration from an existing Tool and Handler.
func WithTool(t loom.Tool, h Handler) Registration {
	return Registration{Tool: t, Handler: h}
}

// Add registers one or more tools to the registry.
// Panics if any tool is already registered.
// Returns the registry for fluent chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}
