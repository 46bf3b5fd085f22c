// Command aguiserver is a reference AG-UI HTTP server. It exposes an agent
// loop over the AG-UI protocol via Server-Sent Events, ready for
// AG-UI compatible frontends like CopilotKit.
//
// Configuration is via environment variables (a .env file is honored):
//
//	AGUI_PORT         - Server port (default: 8000)
//	AGUI_LOG_LEVEL    - Log level: debug, info, warn, error (default: info)
//	LOOM_MODEL        - Model identifier; its provider serves requests (required)
//	LOOM_MAX_STEPS    - Max agent iterations (default: 10)
//	LOOM_TIMEOUT      - Agent timeout (default: 2m)
//	LOOM_DEMO_TOOLS   - Enable demo tools (default: true)
//	ANTHROPIC_API_KEY - Anthropic API key
//	OPENAI_API_KEY    - OpenAI API key
//	GOOGLE_API_KEY    - Google API key
//
// Usage:
//
//	LOOM_MODEL=claude-sonnet-4-5 go run ./cmd/aguiserver
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loomkit/loom/agent"
	"github.com/loomkit/loom/agui"
	"github.com/loomkit/loom/client"
	"github.com/loomkit/loom/tool"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(log)

	upstream := client.New(client.Config{
		APIKeys: client.APIKeys{
			Anthropic: cfg.AnthropicKey,
			OpenAI:    cfg.OpenAIKey,
			Google:    cfg.GoogleKey,
		},
		DefaultModel: cfg.Model,
	})

	registry := tool.NewRegistry()
	if cfg.EnableDemoTools {
		SetupDemoTools(registry)
		log.Info("registered demo tools", "count", registry.Len())
	}

	a := agent.New(upstream, registry,
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithTimeout(cfg.Timeout),
	)

	handler := agui.NewHandler(a, agui.WithHandlerLogger(log))

	mux := http.NewServeMux()
	mux.Handle("/api/agent", corsMiddleware(handler))
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("AG-UI server starting",
		"port", cfg.Port,
		"model", cfg.Model,
		"endpoint", "POST /api/agent",
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
