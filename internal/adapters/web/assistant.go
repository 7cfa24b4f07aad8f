package web

import (
	"net/http"
)

// askAssistant handles POST /api/assistant — a read-only natural-language
// question about the pipeline or ledger.
func (h *Handler) askAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.AskAssistant(r.Context(), req.Question)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}
