// Command mcp is a reference MCP server that exposes tools over stdio.
//
// It demonstrates how to expose a tool.Registry as an MCP server, allowing
// MCP clients (like Claude Desktop or other AI assistants) to discover and
// use the tools.
//
// Usage:
//
//	go run ./cmd/mcp
package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/loomkit/loom/mcp"
	"github.com/loomkit/loom/tool"
)

func main() {
	registry := tool.NewRegistry().Add(
		tool.Func("echo", "Echo back the input text", echoHandler),
		tool.Func("time", "Get the current time", timeHandler),
		tool.Func("calculate", "Perform basic arithmetic", calculateHandler),
	)

	if err := mcp.ServeStdio(registry,
		mcp.WithName("loom-mcp-example"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
}

// EchoArgs are the arguments for the echo tool.
type EchoArgs struct {
	Text string `json:"text" desc:"The text to echo back" required:"true"`
}

func echoHandler(ctx context.Context, args EchoArgs) (string, error) {
	return args.Text, nil
}

// TimeArgs are the arguments for the time tool.
type TimeArgs struct {
	Format string `json:"format" desc:"Time format (optional): 'rfc3339', 'unix', or 'human'"`
}

func timeHandler(ctx context.Context, args TimeArgs) (string, error) {
	now := time.Now()
	switch strings.ToLower(args.Format) {
	case "rfc3339":
		return now.Format(time.RFC3339), nil
	case "unix":
		return strconv.FormatInt(now.Unix(), 10), nil
	default:
		return now.Format("Monday, January 2, 2006 at 3:04 PM"), nil
	}
}

// CalculateArgs are the arguments for the calculate tool.
type CalculateArgs struct {
	A  float64 `json:"a" desc:"First operand" required:"true"`
	B  float64 `json:"b" desc:"Second operand" required:"true"`
	Op string  `json:"op" desc:"Operation: add, sub, mul, div" required:"true"`
}

func calculateHandler(ctx context.Context, args CalculateArgs) (string, error) {
	switch args.Op {
	case "add":
		return fmt.Sprintf("%g", args.A+args.B), nil
	case "sub":
		return fmt.Sprintf("%g", args.A-args.B), nil
	case "mul":
		return fmt.Sprintf("%g", args.A*args.B), nil
	case "div":
		if args.B == 0 {
			return "", fmt.Errorf("division by zero")
		}
		return fmt.Sprintf("%g", args.A/args.B), nil
	default:
		return "", fmt.Errorf("unknown operation %q", args.Op)
	}
}
