package handler

import (
	"net/http"
	"strconv"

	"adreset/internal/database"
)

type AuditHandler struct {
	db *database.DB
}

func NewAuditHandler(db *database.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

// List returns the audit log, newest first, paginated with the "limit"
// and "offset" query parameters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	entries, total, err := h.db.ListAuditLog(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": entries,
		"total": total,
	})
}
