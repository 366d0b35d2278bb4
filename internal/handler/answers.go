package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"adreset/internal/ad"
	"adreset/internal/auth"
	"adreset/internal/config"
	"adreset/internal/database"
	"adreset/internal/model"
	"adreset/internal/util"
)

type answerInput struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type AnswerHandler struct {
	db  *database.DB
	cfg *config.Config
}

func NewAnswerHandler(db *database.DB, cfg *config.Config) *AnswerHandler {
	return &AnswerHandler{db: db, cfg: cfg}
}

// validateNewAnswers enforces the registration policy on a submitted
// answer set: the configured count, the minimum answer length, unique
// questions, and (configurably) unique answers. Answers are lowercased
// when the deployment is case-insensitive. The result maps question ID to
// the normalized answer.
func validateNewAnswers(inputs []answerInput, cfg config.ResetConfig) (map[int64]string, error) {
	if len(inputs) != cfg.RequiredAnswers {
		prefix := fmt.Sprintf("%d answers were", len(inputs))
		if len(inputs) == 1 {
			prefix = "1 answer was"
		}
		return nil, &ad.ValidationError{Msg: fmt.Sprintf(
			"%s supplied but %d are required", prefix, cfg.RequiredAnswers)}
	}

	normalized := make(map[int64]string, len(inputs))
	seenAnswers := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		if input.Answer == "" || input.QuestionID == 0 {
			return nil, &ad.ValidationError{Msg: `The answers must be objects with the keys "question_id" and "answer"`}
		}
		if len(input.Answer) < cfg.AnswersMinimumLength {
			return nil, &ad.ValidationError{Msg: fmt.Sprintf(
				"The answer must be at least %d characters long", cfg.AnswersMinimumLength)}
		}
		answer := input.Answer
		if !cfg.CaseSensitiveAnswers {
			answer = strings.ToLower(answer)
		}
		if _, ok := normalized[input.QuestionID]; ok {
			return nil, &ad.ValidationError{Msg: "One or more questions were the same. Please provide unique questions."}
		}
		normalized[input.QuestionID] = answer
		seenAnswers[answer] = true
	}

	if !cfg.AllowDuplicateAnswers && len(seenAnswers) != len(inputs) {
		return nil, &ad.ValidationError{Msg: "One or more answers were the same. Please provide unique answers."}
	}
	return normalized, nil
}

// Set registers the user's secret answers. The full set is written in one
// transaction; a user who already has answers must delete them first.
func (h *AnswerHandler) Set(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	user, err := h.db.GetUserByGUID(claims.GUID)
	if err != nil || user == nil {
		writeMessage(w, http.StatusUnauthorized, "A valid token is required")
		return
	}

	existing, err := h.db.CountAnswersByUser(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != 0 {
		writeMessage(w, http.StatusBadRequest,
			"You've previously set your secret answers. Please reset them to set them again.")
		return
	}

	var inputs []answerInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeMessage(w, http.StatusBadRequest, "The input must be an array")
		return
	}
	normalized, err := validateNewAnswers(inputs, h.cfg.Reset)
	if err != nil {
		writeError(w, err)
		return
	}

	for questionID := range normalized {
		question, err := h.db.GetQuestion(questionID)
		if err != nil {
			writeError(w, err)
			return
		}
		if question == nil {
			writeMessage(w, http.StatusBadRequest, `The "question_id" is invalid`)
			return
		}
		if !question.Enabled {
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf(
				`The "question_id" of %d is to a disabled question`, question.ID))
			return
		}
	}

	if err := h.db.SetAnswers(user.ID, normalized); err != nil {
		writeError(w, err)
		return
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  claims.Username,
		Action:    "set_answers",
		IPAddress: util.ClientIP(r),
	})
	writeJSON(w, http.StatusCreated, h.answerSummaries(user.ID))
}

// List returns the authenticated user's configured answers (questions
// only; the answers themselves are never returned).
func (h *AnswerHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	user, err := h.db.GetUserByGUID(claims.GUID)
	if err != nil || user == nil {
		writeMessage(w, http.StatusUnauthorized, "A valid token is required")
		return
	}
	writeJSON(w, http.StatusOK, h.answerSummaries(user.ID))
}

// ListForUser returns the questions a user has answers for, so the reset
// form can be rendered before authentication. An unknown user yields an
// empty list, indistinguishable from a user with no answers.
func (h *AnswerHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	session := ad.NewSession(h.cfg.AD)
	defer session.Close()
	if err := session.ServiceLogin(); err != nil {
		writeError(w, err)
		return
	}
	engine := ad.NewEngine(session, h.cfg.AD)

	guid, err := engine.GUID(username)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := []map[string]interface{}{}
	if guid != "" {
		user, err := h.db.GetUserByGUID(guid)
		if err != nil {
			writeError(w, err)
			return
		}
		if user != nil {
			summaries = h.answerSummaries(user.ID)
		}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Delete removes the user's configured answers so they can be set again.
func (h *AnswerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	user, err := h.db.GetUserByGUID(claims.GUID)
	if err != nil || user == nil {
		writeMessage(w, http.StatusUnauthorized, "A valid token is required")
		return
	}
	if err := h.db.DeleteAnswers(user.ID); err != nil {
		writeError(w, err)
		return
	}
	_ = h.db.LogAudit(model.AuditEntry{
		Username:  claims.Username,
		Action:    "delete_answers",
		IPAddress: util.ClientIP(r),
	})
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *AnswerHandler) answerSummaries(userID int64) []map[string]interface{} {
	summaries := []map[string]interface{}{}
	answers, err := h.db.GetAnswersByUser(userID)
	if err != nil {
		return summaries
	}
	for _, a := range answers {
		summary := map[string]interface{}{
			"id":          a.ID,
			"question_id": a.QuestionID,
		}
		if q, err := h.db.GetQuestion(a.QuestionID); err == nil && q != nil {
			summary["question"] = q.Question
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
