package tool

import (
	"context"
	"encoding/json"

	"github.com/loomkit/loom"
)

// Bind creates a Tool and Handler from a typed function. The JSON schema for
// the tool parameters is generated from struct tags on type T.
//
// Example:
//
//	type TranslateArgs struct {
//	    Text string `json:"text" desc:"Text to translate" required:"true"`
//	    To   string `json:"to" desc:"Target language" required:"true"`
//	}
//
//	t, h, err := tool.Bind("translate", "Translate text",
//	    func(ctx context.Context, args TranslateArgs) (string, error) {
//	        return translate(args.Text, args.To)
//	    })
func Bind[T any](name, description string, fn TypedHandler[T]) (loom.Tool, Handler, error) {
	schema, err := loom.SchemaFor[T]()
	if err != nil {
		return loom.Tool{}, nil, err
	}

	t := loom.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}

	handler := func(ctx context.Context, call loom.ToolCall) (string, error) {
		var args T
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", err
		}
		return fn(ctx, args)
	}

	return t, handler, nil
}

// MustBind is like Bind but panics on error. Useful in initialization code
// where errors should be fatal.
func MustBind[T any](name, description string, fn TypedHandler[T]) (loom.Tool, Handler) {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t, h
}

// BindTo creates a tool from a typed function and registers it directly.
func BindTo[T any](r *Registry, name, description string, fn TypedHandler[T]) error {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(t, h)
}

// MustBindTo is like BindTo but panics on error.
func MustBindTo[T any](r *Registry, name, description string, fn TypedHandler[T]) {
	if err := BindTo(r, name, description, fn); err != nil {
		panic(err)
	}
}
