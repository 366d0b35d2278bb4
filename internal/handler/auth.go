package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"adreset/internal/ad"
	"adreset/internal/auth"
	"adreset/internal/config"
	"adreset/internal/database"
	"adreset/internal/model"
	"adreset/internal/util"
)

type AuthHandler struct {
	db     *database.DB
	tokens *auth.TokenManager
	cfg    *config.Config
}

func NewAuthHandler(db *database.DB, tokens *auth.TokenManager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, cfg: cfg}
}

// About reports the answer policy so the client can shape its forms.
func (h *AuthHandler) About(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"allow_duplicate_answers": h.cfg.Reset.AllowDuplicateAnswers,
			"answers_minimum_length":  h.cfg.Reset.AnswersMinimumLength,
			"required_answers":        h.cfg.Reset.RequiredAnswers,
			"account_status_enabled":  h.cfg.AD.AccountStatusEnabled(),
			"version":                 version,
		})
	}
}

// Login authenticates the user against the directory with their own
// credentials, creates their local row on first login, and hands back a
// token keyed by their AD GUID.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, `The parameters "username" and "password" must not be empty`)
		return
	}

	session := ad.NewSession(h.cfg.AD)
	defer session.Close()
	if err := session.Login(req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	username, err := session.WhoAmI()
	if err != nil {
		writeError(w, err)
		return
	}
	engine := ad.NewEngine(session, h.cfg.AD)
	guid, err := engine.GUID(username)
	if err != nil {
		writeError(w, err)
		return
	}
	if guid == "" {
		writeError(w, &ad.ADError{Msg: "The user couldn't be found in Active Directory"})
		return
	}

	user, err := h.db.EnsureUser(guid)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ADGuid, username)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  username,
		Action:    "login",
		IPAddress: util.ClientIP(r),
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.FromRequest(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "A valid token is required")
		return
	}
	user, err := h.db.GetUserByGUID(claims.GUID)
	if err != nil || user == nil {
		writeMessage(w, http.StatusUnauthorized, "A valid token is required")
		return
	}
	if err := h.tokens.Revoke(claims, user.ID); err != nil {
		writeError(w, fmt.Errorf("revoking the token: %w", err))
		return
	}
	_ = h.db.LogAudit(model.AuditEntry{
		Username:  claims.Username,
		Action:    "logout",
		IPAddress: util.ClientIP(r),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "You were logged out successfully"})
}
