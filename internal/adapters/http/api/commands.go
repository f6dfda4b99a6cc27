package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/internal/render"
	"github.com/okian/scrollstats/pkg/logger"
)

const maxBodyBytes = 1 << 20

// commandRequest is the body of POST /commands/{name}. Both fields are
// optional; query parameters other than "format" are merged into args.
type commandRequest struct {
	Args   map[string]string `json:"args"`
	Caller string            `json:"caller"`
}

// CommandsHandler handles command requests.
type CommandsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewCommandsHandler creates a new commands handler.
func NewCommandsHandler(deps Dependencies, l logger.Logger) *CommandsHandler {
	return &CommandsHandler{deps: deps, logger: l}
}

// HandleList handles GET /commands.
func (h *CommandsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, service.Commands())
}

// HandleCommand handles POST /commands/{name}.
func (h *CommandsHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	var req commandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, string(service.KindBadRequest), fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	args := make(map[string]string, len(req.Args))
	for k, v := range r.URL.Query() {
		if k != "format" && len(v) > 0 {
			args[k] = v[0]
		}
	}
	for k, v := range req.Args {
		args[strings.ToLower(k)] = v
	}

	cmd := service.Command{Name: r.PathValue("name"), Args: args, Caller: req.Caller}
	res, err := h.deps.Dispatch(r.Context(), cmd)
	if err != nil {
		h.logger.Info(r.Context(), "command failed",
			logger.String("command", cmd.Name),
			logger.String("request_id", requestID(r)),
			logger.Error(err),
		)
		writeCommandError(w, r, err)
		return
	}
	writeResult(w, r, res)
}

func wantsText(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "text")
}

func writeResult(w http.ResponseWriter, r *http.Request, res *service.Result) {
	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = render.Text(w, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeCommandError(w http.ResponseWriter, r *http.Request, err error) {
	e := service.AsError(err)
	status := statusFor(e.Kind)
	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_ = render.Error(w, e)
		return
	}
	writeJSON(w, status, errorResponse{Code: string(e.Kind), Message: e.Message})
}
