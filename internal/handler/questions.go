package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"adreset/internal/auth"
	"adreset/internal/database"
	"adreset/internal/model"
	"adreset/internal/util"
)

type QuestionHandler struct {
	db *database.DB
}

func NewQuestionHandler(db *database.DB) *QuestionHandler {
	return &QuestionHandler{db: db}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	enabledOnly := false
	if v := parseBool(r.URL.Query().Get("enabled")); v != nil {
		enabledOnly = *v
	}
	questions, err := h.db.ListQuestions(enabledOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("questionID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, `The parameter "question_id" must be an integer`)
		return
	}
	question, err := h.db.GetQuestion(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if question == nil {
		writeMessage(w, http.StatusNotFound, "The question was not found")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Enabled  *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeMessage(w, http.StatusBadRequest, `The parameter "question" must not be empty`)
		return
	}
	if err := database.ValidateQuestionText(req.Question); err != nil {
		writeMessage(w, http.StatusBadRequest, "The question must be less than 256 characters")
		return
	}

	exists, err := h.db.QuestionExists(req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeMessage(w, http.StatusBadRequest, "The supplied question already exists")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	question, err := h.db.CreateQuestion(req.Question, enabled)
	if err != nil {
		writeError(w, err)
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		_ = h.db.LogAudit(model.AuditEntry{
			Username:  claims.Username,
			Action:    "create_question",
			Detail:    question.Question,
			IPAddress: util.ClientIP(r),
		})
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("questionID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, `The parameter "question_id" must be an integer`)
		return
	}

	var req map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "The input must be a JSON object")
		return
	}
	for key := range req {
		if key != "question" && key != "enabled" {
			writeMessage(w, http.StatusBadRequest,
				"Invalid keys were supplied. Please use the following keys: enabled, question")
			return
		}
	}

	question, err := h.db.GetQuestion(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if question == nil {
		writeMessage(w, http.StatusNotFound, "The question was not found")
		return
	}

	if raw, ok := req["question"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil || text == "" {
			writeMessage(w, http.StatusBadRequest, `The parameter "question" must be a string`)
			return
		}
		if err := database.ValidateQuestionText(text); err != nil {
			writeMessage(w, http.StatusBadRequest, "The question must be less than 256 characters")
			return
		}
		question.Question = text
	}
	if raw, ok := req["enabled"]; ok {
		var enabled bool
		if err := json.Unmarshal(raw, &enabled); err != nil {
			writeMessage(w, http.StatusBadRequest, `The parameter "enabled" must be a boolean`)
			return
		}
		question.Enabled = enabled
	}

	if err := h.db.UpdateQuestion(question); err != nil {
		writeError(w, err)
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		_ = h.db.LogAudit(model.AuditEntry{
			Username:  claims.Username,
			Action:    "update_question",
			Detail:    question.Question,
			IPAddress: util.ClientIP(r),
		})
	}
	writeJSON(w, http.StatusOK, question)
}
