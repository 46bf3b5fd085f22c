// Command aguichat is a terminal chat client for AG-UI servers. It connects
// to an AG-UI endpoint, streams assistant output as it arrives, and executes
// frontend-side tools locally when the server delegates calls to it.
//
// Configuration is via environment variables (a .env file is honored):
//
//	AGUI_ENDPOINT   - AG-UI endpoint URL (default: http://localhost:8000/api/agent)
//	AGUI_LOG_LEVEL  - Log level: debug, info, warn, error (default: warn)
//
// Usage:
//
//	go run ./cmd/aguichat
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agent"
	"github.com/loomkit/loom/agui"
	"github.com/loomkit/loom/internal/store"
	"github.com/loomkit/loom/tool"
)

func main() {
	godotenv.Load()

	endpoint := os.Getenv("AGUI_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:8000/api/agent"
	}

	level := slog.LevelWarn
	if os.Getenv("AGUI_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	remote := agui.NewClient(endpoint, agui.WithClientLogger(log))

	// Local tools the server can delegate to this frontend.
	registry := tool.NewRegistry().Add(
		tool.Func("confirm", "Ask the user for a yes/no confirmation",
			func(ctx context.Context, args struct {
				Question string `json:"question" desc:"Question to ask the user" required:"true"`
			}) (string, error) {
				fmt.Printf("\n[confirm] %s (y/n): ", args.Question)
				reader := bufio.NewReader(os.Stdin)
				answer, err := reader.ReadString('\n')
				if err != nil {
					return "", err
				}
				if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					return `{"confirmed": true}`, nil
				}
				return `{"confirmed": false}`, nil
			},
		),
	)

	a := agent.New(remote, registry)

	fmt.Printf("Connected to %s\n", endpoint)
	fmt.Println("Type a message, or /quit to exit.")

	ctx := context.Background()
	var history []loom.Message
	scanner := bufio.NewScanner(os.Stdin)

	// Frontend-owned shared state, sent as the AG-UI state snapshot on
	// every run.
	state := store.NewFrom(map[string]any{"turns": 0})

	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		turns, _ := state.Get("turns")
		if n, ok := turns.(int); ok {
			state.Set("turns", n+1)
		}

		history = append(history, loom.Message{
			Role:    loom.RoleUser,
			Content: line,
			Parts: []loom.ContentPart{loom.NewDataPart(state.Data())},
		})

		ch, err := a.RunStream(ctx, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Print("assistant> ")
		updates := make([]loom.Update, 0, 32)
		for u := range ch {
			updates = append(updates, u)
			for _, content := range u.Contents {
				switch c := content.(type) {
				case loom.TextContent:
					fmt.Print(c.Text)
				case loom.ToolCallContent:
					fmt.Printf("\n[tool call] %s(%s)\n", c.Call.Name, c.Call.Arguments)
				case loom.ToolResultContent:
					fmt.Printf("[tool result] %s\n", c.Result.Content)
				case loom.ServerToolContent:
					fmt.Printf("\n[server tool] %s -> %s\n", c.Call.Name, c.Result.Content)
				case loom.ErrorContent:
					fmt.Fprintf(os.Stderr, "\nrun failed: %s\n", c.Message)
				}
			}
		}
		fmt.Println()

		history = append(history, loom.MessagesFromUpdates(updates)...)
	}
}
