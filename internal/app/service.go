package app

import (
	"context"

	"agency-pipeline/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI tooling)
// call. It decouples presentation from business logic: implementations carry
// no display logic and translate between wire-friendly request types and the
// core services.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error)

	// GetTeamMember returns one team member's profile.
	GetTeamMember(ctx context.Context, memberID int) (*TeamMemberResult, error)

	// ListTeamMembers returns the team directory.
	ListTeamMembers(ctx context.Context, activeOnly bool) (*TeamListResult, error)

	// CreateTeamMember registers a new team member. Admin-only; the adapter
	// enforces the role check before calling.
	CreateTeamMember(ctx context.Context, req CreateTeamMemberRequest) (*TeamMemberResult, error)

	// SetTeamMemberActive activates or deactivates a team member. Admin-only.
	SetTeamMemberActive(ctx context.Context, memberID int, active bool, actorID int) error

	// CreateSet books a new prospect call into the pipeline.
	CreateSet(ctx context.Context, req CreateSetRequest) (*SetResult, error)

	// GetSetDetail returns a set with its status history, outcomes and payments.
	GetSetDetail(ctx context.Context, setID int) (*SetDetailResult, error)

	// ListSets returns pipeline sets, optionally filtered by status.
	ListSets(ctx context.Context, status string) (*SetListResult, error)

	// TransitionSetStatus moves a set through the pipeline state machine.
	TransitionSetStatus(ctx context.Context, req TransitionRequest) (*SetResult, error)

	// RegisterFollowUp records a follow-up outcome and parks the set in seguimiento.
	RegisterFollowUp(ctx context.Context, req FollowUpRequest) error

	// RegisterDisqualification records a disqualification and terminates the set.
	RegisterDisqualification(ctx context.Context, req DisqualifyRequest) error

	// CloseDeal runs the full closure workflow: deal, client, onboarding,
	// schedule, optional first payment, final status.
	CloseDeal(ctx context.Context, req CloseDealRequest) (*CloseDealResult, error)

	// RegisterPayment records a payment against a set and spawns its commissions.
	RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*PaymentResult, error)

	// MarkCommissionPaid settles one commission. Idempotent.
	MarkCommissionPaid(ctx context.Context, commissionID, actorID int) error

	// ListCommissions returns commissions, optionally scoped to a member
	// and/or to unpaid rows.
	ListCommissions(ctx context.Context, teamMemberID *int, unpaidOnly bool) (*CommissionListResult, error)

	// ListClients returns converted clients, optionally filtered by status.
	ListClients(ctx context.Context, status string) (*ClientListResult, error)

	// GetClientDetail returns a client with its checklist and phase schedule.
	GetClientDetail(ctx context.Context, clientID int) (*ClientDetailResult, error)

	// UpdateClientStatus moves a client through its delivery lifecycle.
	UpdateClientStatus(ctx context.Context, clientID int, status string, actorID int) (*ClientResult, error)

	// AssignClient hands a client to a team member.
	AssignClient(ctx context.Context, clientID, teamMemberID, actorID int) error

	// SetOnboardingItemDone toggles one onboarding checklist entry.
	SetOnboardingItemDone(ctx context.Context, itemID int, done bool, actorID int) error

	// UpdatePhaseStatus moves one 90-day phase between pendiente, en_progreso
	// and completado.
	UpdatePhaseStatus(ctx context.Context, phaseID int, status string, actorID int) error

	// RecordExpense / RecordAdSpend / RecordSalary / RecordManualTransaction
	// append rows to the ledger.
	RecordExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error)
	ListExpenses(ctx context.Context, from, to string) ([]core.Expense, error)
	RecordAdSpend(ctx context.Context, req AdSpendRequest) (*core.AdSpend, error)
	ListAdSpend(ctx context.Context, from, to string) ([]core.AdSpend, error)
	RecordSalary(ctx context.Context, req SalaryRequest) (*core.SalaryPayment, error)
	MarkSalaryPaid(ctx context.Context, salaryID, actorID int) error
	ListSalaries(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]core.SalaryPayment, error)
	RecordManualTransaction(ctx context.Context, req ManualTxRequest) (*core.ManualTransaction, error)
	DeleteManualTransaction(ctx context.Context, txID, actorID int) error
	ListManualTransactions(ctx context.Context, from, to string) ([]core.ManualTransaction, error)

	// SummarizeLedger computes the financial summary for a period. Empty
	// bounds mean all time; bounds use the 2006-01-02 format.
	SummarizeLedger(ctx context.Context, from, to string) (*core.AccountingSummary, error)

	// ListNotifications returns a member's notifications.
	ListNotifications(ctx context.Context, teamMemberID int, unreadOnly bool) ([]core.Notification, error)

	// MarkNotificationRead settles one notification.
	MarkNotificationRead(ctx context.Context, notificationID int) error

	// ListActivity returns the most recent activity-log entries.
	ListActivity(ctx context.Context, limit int) ([]core.ActivityEntry, error)

	// AskAssistant answers a natural-language question about the pipeline and
	// ledger, grounded on a read-only snapshot of current data.
	AskAssistant(ctx context.Context, question string) (*AssistantResult, error)
}
