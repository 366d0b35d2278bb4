package handler

import (
	"net/http"

	"adreset/internal/ad"
	"adreset/internal/config"
)

type StatusHandler struct {
	cfg *config.Config
}

func NewStatusHandler(cfg *config.Config) *StatusHandler {
	return &StatusHandler{cfg: cfg}
}

// Get reports the directory account status for a username. The endpoint
// can be switched off entirely in the configuration.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AD.AccountStatusEnabled() {
		writeMessage(w, http.StatusNotFound, "The requested resource was not found")
		return
	}

	username := r.PathValue("username")
	if username == "" {
		writeMessage(w, http.StatusBadRequest, `The parameter "username" must not be empty`)
		return
	}

	session := ad.NewSession(h.cfg.AD)
	defer session.Close()
	if err := session.ServiceLogin(); err != nil {
		writeError(w, err)
		return
	}

	status, err := ad.NewEngine(session, h.cfg.AD).GetAccountStatus(username)
	if err != nil {
		writeError(w, err)
		return
	}
	if status == nil {
		writeMessage(w, http.StatusNotFound, "The user was not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
