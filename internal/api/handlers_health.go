package api

import (
	"context"
	"net/http"
	"time"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondOK(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready checks the session store. Open breakers are reported but do not make
// the service unready; requests fail fast with a notice instead.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	breakers := make(map[string]string, len(h.breakers))
	for name, b := range h.breakers {
		breakers[name] = b.State()
	}

	status := http.StatusOK
	store := "ok"
	if err := h.service.Ready(ctx); err != nil {
		h.logger.Warn("session store not ready", map[string]interface{}{"error": err})
		status = http.StatusServiceUnavailable
		store = err.Error()
	}

	h.respondJSON(w, r, status, &APIResponse{
		Success: status == http.StatusOK,
		Data: map[string]interface{}{
			"store":    store,
			"breakers": breakers,
		},
	})
}
