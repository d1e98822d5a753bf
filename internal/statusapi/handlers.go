package statusapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	provider StateProvider
	logger   *slog.Logger
}

// NewHandlers builds the handler set.
func NewHandlers(provider StateProvider, logger *slog.Logger) *Handlers {
	return &Handlers{provider: provider, logger: logger.With("component", "statusapi-handlers")}
}

// HandleHealth is a liveness probe: it always returns 200 once the process
// can serve HTTP at all, independent of the executor's pause state.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleStatus returns the current executor snapshot.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := buildSnapshot(h.provider)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.Error("failed to encode status snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
