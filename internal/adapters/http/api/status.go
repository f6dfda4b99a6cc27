package api

import (
	"net/http"
)

// StatusHandler handles status requests.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	res, err := h.deps.Status(r.Context())
	if err != nil {
		writeCommandError(w, r, err)
		return
	}
	writeResult(w, r, res)
}
