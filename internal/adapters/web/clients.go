package web

import (
	"net/http"
)

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListClients(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getClientDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid client id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.GetClientDetail(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) updateClientStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid client id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.UpdateClientStatus(r.Context(), id, req.Status, actorID(r))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) assignClient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid client id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		TeamMemberID int `json:"team_member_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.AssignClient(r.Context(), id, req.TeamMemberID, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setOnboardingItemDone(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid item id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Done bool `json:"done"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.SetOnboardingItemDone(r.Context(), id, req.Done, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updatePhaseStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid phase id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.UpdatePhaseStatus(r.Context(), id, req.Status, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
