package agui

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/agui/events"
)

// Handler exposes a loom agent as an AG-UI endpoint: one POST per run,
// events streamed back as SSE.
//
// Frontend tools declared by the request are passed to the agent as tool
// declarations; an agent built with the agent package treats any declared
// tool it has no handler for as frontend-executed, so the run ends with
// those calls pending and the frontend resumes the thread with their
// results.
type Handler struct {
	agent   loom.Agent
	log     *slog.Logger
	runOpts []loom.RunOption
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the request logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = log }
}

// WithRunOptions sets base invocation options applied to every run, before
// the request's own options.
func WithRunOptions(opts ...loom.RunOption) HandlerOption {
	return func(h *Handler) { h.runOpts = append(h.runOpts, opts...) }
}

// NewHandler creates a Handler serving the given agent.
func NewHandler(agent loom.Agent, opts ...HandlerOption) *Handler {
	h := &Handler{
		agent: agent,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP runs the agent for one request and streams the run's events.
// Request problems are rejected with a plain 400 before any event; once
// streaming has started every failure becomes a RUN_ERROR event, never a
// bare connection drop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log.Warn("invalid request body", "error", err)
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	prepared, err := input.Prepare()
	if err != nil {
		h.log.Warn("invalid run input", "thread_id", input.ThreadID, "run_id", input.RunID, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := h.log.With("thread_id", prepared.ThreadID, "run_id", prepared.RunID)
	log.Info("run started", "messages", len(prepared.Messages), "frontend_tools", len(prepared.ToolNames))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("response writer does not support streaming")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	enc := NewEncoder(prepared.ThreadID, prepared.RunID)
	if err := WriteEvent(w, flusher, enc.Start()); err != nil {
		log.Error("write failed", "error", err)
		return
	}

	ctx := r.Context()
	runOpts := append(append([]loom.RunOption(nil), h.runOpts...), prepared.RunOptions()...)
	updates, err := h.agent.RunStream(ctx, prepared.Messages, runOpts...)
	if err != nil {
		log.Error("agent invocation failed", "error", err)
		h.writeAll(w, flusher, log, enc.Fail(err.Error(), CodeUpstreamFailure))
		return
	}

	parted := Partition(updates, prepared.ToolNames)
	var sent int
	for u := range parted {
		evs := enc.Encode(u)
		if u.FinishReason != loom.FinishNone && !enc.Done() {
			evs = append(evs, enc.Finish()...)
		}
		for _, e := range evs {
			if err := WriteEvent(w, flusher, e); err != nil {
				log.Error("write failed", "events_sent", sent, "error", err)
				// Keep draining so the producer is not left blocked; the
				// request context cancellation winds the agent down.
				go func() {
					for range parted {
					}
				}()
				return
			}
			sent++
		}
	}

	if !enc.Done() {
		// The agent's stream ended without a terminal update.
		h.writeAll(w, flusher, log, enc.Fail("update stream ended without a finish reason", CodeUpstreamFailure))
	}

	log.Info("run finished", "duration_ms", time.Since(start).Milliseconds(), "events_sent", sent)
}

func (h *Handler) writeAll(w http.ResponseWriter, flusher http.Flusher, log *slog.Logger, evs []events.Event) bool {
	for _, e := range evs {
		if err := WriteEvent(w, flusher, e); err != nil {
			log.Error("write failed", "error", err)
			return false
		}
	}
	return true
}
