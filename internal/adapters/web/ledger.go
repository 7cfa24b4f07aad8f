package web

import (
	"net/http"

	"agency-pipeline/internal/app"
)

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	var req app.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	e, err := h.svc.RecordExpense(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, e)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListExpenses(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handler) recordAdSpend(w http.ResponseWriter, r *http.Request) {
	var req app.AdSpendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	a, err := h.svc.RecordAdSpend(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, a)
}

func (h *Handler) listAdSpend(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListAdSpend(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handler) recordSalary(w http.ResponseWriter, r *http.Request) {
	var req app.SalaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	sp, err := h.svc.RecordSalary(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, sp)
}

func (h *Handler) markSalaryPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid salary id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkSalaryPaid(r.Context(), id, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSalaries(w http.ResponseWriter, r *http.Request) {
	var memberID *int
	if raw := r.URL.Query().Get("member"); raw != "" {
		id, ok := atoiPositive(raw)
		if !ok {
			writeError(w, r, "invalid member id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		memberID = &id
	}
	unpaidOnly := r.URL.Query().Get("unpaid") == "true"

	out, err := h.svc.ListSalaries(r.Context(), memberID, unpaidOnly)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handler) recordManualTransaction(w http.ResponseWriter, r *http.Request) {
	var req app.ManualTxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	mt, err := h.svc.RecordManualTransaction(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, mt)
}

func (h *Handler) deleteManualTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid transaction id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteManualTransaction(r.Context(), id, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listManualTransactions(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListManualTransactions(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}

// summarizeLedger handles GET /api/reports/summary?from=&to= — empty bounds
// mean all time.
func (h *Handler) summarizeLedger(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.SummarizeLedger(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, sum)
}
