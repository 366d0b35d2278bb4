package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"adreset/internal/ad"
	"adreset/internal/config"
	"adreset/internal/database"
	"adreset/internal/lockout"
	"adreset/internal/model"
	"adreset/internal/util"
)

type ResetHandler struct {
	db      *database.DB
	tracker *lockout.Tracker
	cfg     *config.Config
}

func NewResetHandler(db *database.DB, tracker *lockout.Tracker, cfg *config.Config) *ResetHandler {
	return &ResetHandler{db: db, tracker: tracker, cfg: cfg}
}

// validateResetAnswers checks the structure of a reset submission against
// the user's configured question IDs: every answer must name a configured
// question and no question may be answered twice. Correctness is not
// checked here; structural faults are safe to report specifically,
// correctness faults are not.
func validateResetAnswers(inputs []answerInput, configured map[int64]string, required int) error {
	seen := make(map[int64]bool, len(inputs))
	for _, input := range inputs {
		if input.QuestionID == 0 || input.Answer == "" {
			return &ad.ValidationError{Msg: `The answers must be objects with the keys "question_id" and "answer"`}
		}
		if _, ok := configured[input.QuestionID]; !ok {
			return &ad.ValidationError{Msg: "One of the answers was to a question that wasn't previously configured"}
		}
		if seen[input.QuestionID] {
			return &ad.ValidationError{Msg: fmt.Sprintf("You must answer %d different questions", required)}
		}
		seen[input.QuestionID] = true
	}
	if len(inputs) != required {
		return &ad.ValidationError{Msg: fmt.Sprintf("You must answer %d different questions", required)}
	}
	return nil
}

// Reset performs the self-service password reset: resolve the user via
// the service session, gate on the local lockout, validate the payload
// structurally, and only then verify the answers. Every answer miss is
// recorded as a failed attempt and reported with the same message no
// matter which answer was wrong.
func (h *ResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string        `json:"username"`
		NewPassword string        `json:"new_password"`
		Answers     []answerInput `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Username == "" || req.NewPassword == "" || len(req.Answers) == 0 {
		writeMessage(w, http.StatusBadRequest,
			`The parameters "username", "new_password" and "answers" must not be empty`)
		return
	}

	notSetupMsg := fmt.Sprintf(
		"You must have configured at least %d secret answers before resetting your password",
		h.cfg.Reset.RequiredAnswers)

	session := ad.NewSession(h.cfg.AD)
	defer session.Close()
	if err := session.ServiceLogin(); err != nil {
		writeError(w, err)
		return
	}
	engine := ad.NewEngine(session, h.cfg.AD)

	guid, err := engine.GUID(req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	var user *model.User
	if guid != "" {
		user, err = h.db.GetUserByGUID(guid)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if user == nil {
		log.Printf("reset: the user %q attempted a reset but does not exist in the database", req.Username)
		writeMessage(w, http.StatusBadRequest, notSetupMsg)
		return
	}

	locked, err := h.tracker.IsLockedOut(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if locked {
		log.Printf("reset: the user %q attempted a reset but is locked out", req.Username)
		writeMessage(w, http.StatusUnauthorized, "Your account is locked. Please try again later.")
		return
	}

	stored, err := h.db.GetAnswersByUser(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	configured := make(map[int64]string, len(stored))
	for _, a := range stored {
		configured[a.QuestionID] = a.AnswerHash
	}
	if len(configured) != h.cfg.Reset.RequiredAnswers {
		log.Printf("reset: the user %q attempted a reset without configured answers", req.Username)
		writeMessage(w, http.StatusBadRequest, notSetupMsg)
		return
	}

	if err := validateResetAnswers(req.Answers, configured, h.cfg.Reset.RequiredAnswers); err != nil {
		writeError(w, err)
		return
	}

	// The answers are only checked once the whole payload is known to be
	// structurally valid, and a miss never says which answer was wrong.
	for _, input := range req.Answers {
		answer := input.Answer
		if !h.cfg.Reset.CaseSensitiveAnswers {
			answer = strings.ToLower(answer)
		}
		if database.VerifyAnswer(answer, configured[input.QuestionID]) {
			continue
		}

		log.Printf("reset: the user %q entered an incorrect answer", req.Username)
		if err := h.tracker.RecordFailure(r.Context(), user.ID); err != nil {
			log.Printf("reset: recording the failed attempt failed: %v", err)
		}
		_ = h.db.LogAudit(model.AuditEntry{
			Username:  req.Username,
			Action:    "reset_failed",
			IPAddress: util.ClientIP(r),
		})

		if locked, err := h.tracker.IsLockedOut(r.Context(), user.ID); err == nil && locked {
			log.Printf("reset: the user %q is now locked out", req.Username)
			writeMessage(w, http.StatusUnauthorized,
				"You have answered incorrectly too many times. Your account is now locked. Please try again later.")
			return
		}
		writeMessage(w, http.StatusUnauthorized, "One or more answers were incorrect. Please try again.")
		return
	}

	if err := engine.ResetPassword(req.Username, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	log.Printf("reset: the user %q successfully reset their password", req.Username)
	_ = h.db.LogAudit(model.AuditEntry{
		Username:  req.Username,
		Action:    "reset",
		IPAddress: util.ClientIP(r),
	})
	writeJSON(w, http.StatusNoContent, nil)
}
