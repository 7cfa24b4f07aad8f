package web

import (
	"net/http"

	"agency-pipeline/internal/app"
)

func (h *Handler) listSets(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListSets(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createSet(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	res, err := h.svc.CreateSet(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, res)
}

func (h *Handler) getSetDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.GetSetDetail(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) transitionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SetID = id
	req.ActorID = actorID(r)

	res, err := h.svc.TransitionSetStatus(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) registerFollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.FollowUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SetID = id
	req.ActorID = actorID(r)

	if err := h.svc.RegisterFollowUp(r.Context(), req); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) registerDisqualification(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.DisqualifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SetID = id
	req.ActorID = actorID(r)

	if err := h.svc.RegisterDisqualification(r.Context(), req); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) closeDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.CloseDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SetID = id
	req.ActorID = actorID(r)

	res, err := h.svc.CloseDeal(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, res)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid set id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.RegisterPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SetID = id
	req.ActorID = actorID(r)

	res, err := h.svc.RegisterPayment(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, res)
}

func (h *Handler) listCommissions(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.svc.ListCommissions(r.Context(), memberID, unpaidOnly)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) markCommissionPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid commission id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkCommissionPaid(r.Context(), id, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
