package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/handsignal/internal/app"
)

// ModeController is the part of app.Controller the control endpoints use.
type ModeController interface {
	Select(m app.Mode) error
	StopAll()
	Available(m app.Mode) bool
	Snapshot() app.Snapshot
}

// ControlHandler serves the mode buttons: status, mode select and stop.
type ControlHandler struct {
	ctrl ModeController
}

// NewControlHandler creates a new ControlHandler for ctrl.
func NewControlHandler(ctrl ModeController) *ControlHandler {
	return &ControlHandler{ctrl: ctrl}
}

type statusResponse struct {
	app.Snapshot
	Available []app.Mode `json:"available"`
}

type selectModeRequest struct {
	Mode app.Mode `json:"mode"`
}

func (h *ControlHandler) status() statusResponse {
	resp := statusResponse{
		Snapshot:  h.ctrl.Snapshot(),
		Available: make([]app.Mode, 0, len(app.Modes)),
	}
	for _, m := range app.Modes {
		if h.ctrl.Available(m) {
			resp.Available = append(resp.Available, m)
		}
	}
	return resp
}

// Status handles GET /api/status.
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Mode handles POST /api/mode with a body of {"mode": "fist|fingers|voice|idle"}.
func (h *ControlHandler) Mode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var req selectModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, app.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.ctrl.Select(req.Mode); err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownMode):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrUnavailable):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, app.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to select mode")
		}
		return
	}

	writeJSON(w, http.StatusOK, h.status())
}

// Stop handles POST /api/stop.
func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ctrl.StopAll()
	writeJSON(w, http.StatusOK, h.status())
}
