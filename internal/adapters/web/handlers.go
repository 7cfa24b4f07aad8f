package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"agency-pipeline/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API (401 JSON if unauthenticated) ──────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Pipeline
		r.Get("/api/sets", h.listSets)
		r.Post("/api/sets", h.createSet)
		r.Get("/api/sets/{id}", h.getSetDetail)
		r.Post("/api/sets/{id}/transition", h.transitionSet)
		r.Post("/api/sets/{id}/follow-up", h.registerFollowUp)
		r.Post("/api/sets/{id}/disqualify", h.registerDisqualification)
		r.Post("/api/sets/{id}/close", h.closeDeal)
		r.Post("/api/sets/{id}/payments", h.registerPayment)

		// Commissions
		r.Get("/api/commissions", h.listCommissions)
		r.Post("/api/commissions/{id}/pay", h.markCommissionPaid)

		// Clients
		r.Get("/api/clients", h.listClients)
		r.Get("/api/clients/{id}", h.getClientDetail)
		r.Post("/api/clients/{id}/status", h.updateClientStatus)
		r.Post("/api/clients/{id}/assign", h.assignClient)
		r.Post("/api/onboarding-items/{id}", h.setOnboardingItemDone)
		r.Post("/api/phases/{id}/status", h.updatePhaseStatus)

		// Notifications and activity
		r.Get("/api/notifications", h.listNotifications)
		r.Post("/api/notifications/{id}/read", h.markNotificationRead)
		r.Get("/api/activity", h.listActivity)

		// Team directory
		r.Get("/api/team", h.listTeamMembers)
		r.Get("/api/team/{id}", h.getTeamMember)

		// Assistant
		r.Post("/api/assistant", h.askAssistant)

		// ── Admin-only: team management and the financial ledger ──────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Post("/api/team", h.createTeamMember)
			r.Post("/api/team/{id}/active", h.setTeamMemberActive)

			r.Get("/api/expenses", h.listExpenses)
			r.Post("/api/expenses", h.recordExpense)
			r.Get("/api/ad-spend", h.listAdSpend)
			r.Post("/api/ad-spend", h.recordAdSpend)
			r.Get("/api/salaries", h.listSalaries)
			r.Post("/api/salaries", h.recordSalary)
			r.Post("/api/salaries/{id}/pay", h.markSalaryPaid)
			r.Get("/api/manual-transactions", h.listManualTransactions)
			r.Post("/api/manual-transactions", h.recordManualTransaction)
			r.Delete("/api/manual-transactions/{id}", h.deleteManualTransaction)

			r.Get("/api/reports/summary", h.summarizeLedger)
		})
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts a positive integer {id} URL parameter.
func idParam(r *http.Request) (int, bool) {
	return atoiPositive(chi.URLParam(r, "id"))
}

func atoiPositive(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	return id, err == nil && id > 0
}

// actorID returns the authenticated member's ID, or 0 when absent.
func actorID(r *http.Request) int {
	if claims := authFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}

// decodeJSON decodes the request body into v, writing an appropriate error
// response on failure. Returns 413 when the body exceeds the middleware's
// size limit; 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
