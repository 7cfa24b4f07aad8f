package web

import (
	"net/http"

	"agency-pipeline/internal/app"
)

func (h *Handler) listTeamMembers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	res, err := h.svc.ListTeamMembers(r.Context(), activeOnly)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid member id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.GetTeamMember(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createTeamMember(w http.ResponseWriter, r *http.Request) {
	var req app.CreateTeamMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ActorID = actorID(r)

	res, err := h.svc.CreateTeamMember(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, res)
}

func (h *Handler) setTeamMemberActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid member id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetTeamMemberActive(r.Context(), id, req.Active, actorID(r)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	out, err := h.svc.ListNotifications(r.Context(), actorID(r), unreadOnly)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid notification id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkNotificationRead(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = atoiPositive(raw)
	}
	out, err := h.svc.ListActivity(r.Context(), limit)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, out)
}
