package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SetStatus is the pipeline status of a Set (one prospect sales cycle).
type SetStatus string

const (
	StatusAgendado        SetStatus = "agendado"
	StatusPrecallEnviado  SetStatus = "precall_enviado"
	StatusReagendo        SetStatus = "reagendo"
	StatusNoShow          SetStatus = "no_show"
	StatusSeguimiento     SetStatus = "seguimiento"
	StatusDescalificado   SetStatus = "descalificado"
	StatusClosed          SetStatus = "closed"
	StatusClosedPendiente SetStatus = "closed_pendiente"
)

// setTransitions is the full transition table for the pipeline.
// A status missing from the inner set is not reachable from that source.
// descalificado and closed are terminal; closed_pendiente can only settle to closed.
var setTransitions = map[SetStatus]map[SetStatus]bool{
	StatusAgendado: {
		StatusPrecallEnviado: true, StatusReagendo: true, StatusNoShow: true,
		StatusSeguimiento: true, StatusDescalificado: true,
		StatusClosed: true, StatusClosedPendiente: true,
	},
	StatusPrecallEnviado: {
		StatusReagendo: true, StatusNoShow: true, StatusSeguimiento: true,
		StatusDescalificado: true, StatusClosed: true, StatusClosedPendiente: true,
	},
	StatusReagendo: {
		StatusAgendado: true, StatusPrecallEnviado: true, StatusNoShow: true,
		StatusSeguimiento: true, StatusDescalificado: true,
		StatusClosed: true, StatusClosedPendiente: true,
	},
	StatusNoShow: {
		StatusReagendo: true, StatusSeguimiento: true, StatusDescalificado: true,
	},
	StatusSeguimiento: {
		StatusAgendado: true, StatusReagendo: true, StatusDescalificado: true,
		StatusClosed: true, StatusClosedPendiente: true,
	},
	StatusDescalificado:   {},
	StatusClosed:          {},
	StatusClosedPendiente: {StatusClosed: true},
}

// ValidStatus reports whether s is a member of the pipeline status set.
func ValidStatus(s SetStatus) bool {
	_, ok := setTransitions[s]
	return ok
}

// CanTransition reports whether the pipeline allows moving from one status to another.
func CanTransition(from, to SetStatus) bool {
	return setTransitions[from][to]
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(s SetStatus) bool {
	return ValidStatus(s) && len(setTransitions[s]) == 0
}

// DealOutcome is the recorded disposition of a Set.
type DealOutcome string

const (
	OutcomeClosed        DealOutcome = "closed"
	OutcomeFollowUp      DealOutcome = "follow_up"
	OutcomeDescalificado DealOutcome = "descalificado"
)

// ClientStatus is the delivery lifecycle of a converted client.
type ClientStatus string

const (
	ClientOnboarding ClientStatus = "onboarding"
	ClientActivo     ClientStatus = "activo"
	ClientPausado    ClientStatus = "pausado"
	ClientCompletado ClientStatus = "completado"
)

// PhaseStatus is the state of one phase in the 90-day delivery schedule.
type PhaseStatus string

const (
	PhasePendiente  PhaseStatus = "pendiente"
	PhaseEnProgreso PhaseStatus = "en_progreso"
	PhaseCompletado PhaseStatus = "completado"
)

// Service90Day is the service line that gets a phased 90-day delivery schedule at closure.
const Service90Day = "programa_90d"

// ManualTxType distinguishes manual ledger entries by direction.
type ManualTxType string

const (
	ManualIngreso ManualTxType = "ingreso"
	ManualEgreso  ManualTxType = "egreso"
)

// TeamMember is a member of the agency team (admin, setter or closer).
type TeamMember struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // 'admin', 'setter', 'closer'
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Set is one prospect sales cycle: a scheduled call between a prospect and a closer.
type Set struct {
	ID            int        `json:"id"`
	ProspectName  string     `json:"prospect_name"`
	ProspectEmail string     `json:"prospect_email"`
	ProspectPhone string     `json:"prospect_phone"`
	SetterID      int        `json:"setter_id"`
	CloserID      int        `json:"closer_id"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Service       string     `json:"service"`
	Status        SetStatus  `json:"status"`
	IsDuplicate   bool       `json:"is_duplicate"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// StatusChange is one immutable row in a set's status history trail.
type StatusChange struct {
	ID        int       `json:"id"`
	SetID     int       `json:"set_id"`
	OldStatus SetStatus `json:"old_status"`
	NewStatus SetStatus `json:"new_status"`
	ActorID   int       `json:"actor_id"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Deal is one recorded outcome of a Set. A set may accumulate several rows
// (e.g. a follow_up, then a closed), but only one closed row carries revenue.
type Deal struct {
	ID           int             `json:"id"`
	SetID        int             `json:"set_id"`
	Outcome      DealOutcome     `json:"outcome"`
	ServiceSold  string          `json:"service_sold,omitempty"`
	RevenueTotal decimal.Decimal `json:"revenue_total"`
	FollowUpDate *time.Time      `json:"follow_up_date,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Client is a converted, paying customer. Created exactly once, when a set's
// outcome becomes closed.
type Client struct {
	ID           int          `json:"id"`
	SetID        int          `json:"set_id"`
	DealID       int          `json:"deal_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Service      string       `json:"service"`
	Status       ClientStatus `json:"status"`
	AssignedToID *int         `json:"assigned_to_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// OnboardingItem is one checklist entry seeded at client creation.
type OnboardingItem struct {
	ID       int    `json:"id"`
	ClientID int    `json:"client_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
	IsDone   bool   `json:"is_done"`
}

// ProgramPhase is one phase of the 90-day delivery schedule, anchored to the
// closure date.
type ProgramPhase struct {
	ID          int         `json:"id"`
	ClientID    int         `json:"client_id"`
	PhaseNumber int         `json:"phase_number"`
	Name        string      `json:"name"`
	StartDay    int         `json:"start_day"`
	EndDay      int         `json:"end_day"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Status      PhaseStatus `json:"status"`
}

// Payment is one money-received event. PaymentDate is the authoritative date
// for financial anchoring; fee and net are derived at insert time and never
// recomputed.
type Payment struct {
	ID                int             `json:"id"`
	SetID             int             `json:"set_id"`
	ClientID          *int            `json:"client_id,omitempty"`
	Gross             decimal.Decimal `json:"gross"`
	Method            string          `json:"method"`
	InstallmentMonths *int            `json:"installment_months,omitempty"`
	FeePercentage     decimal.Decimal `json:"fee_percentage"`
	FeeAmount         decimal.Decimal `json:"fee_amount"`
	Net               decimal.Decimal `json:"net"`
	PaymentDate       time.Time       `json:"payment_date"`
	Notes             string          `json:"notes"`
	CreatedByID       int             `json:"created_by_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Commission is a percentage-of-net payout owed to the setter or closer on a
// payment. Its paid lifecycle is settled independently of the payment.
type Commission struct {
	ID           int             `json:"id"`
	PaymentID    int             `json:"payment_id"`
	TeamMemberID int             `json:"team_member_id"`
	Role         CommissionRole  `json:"role"`
	Amount       decimal.Decimal `json:"amount"`
	IsPaid       bool            `json:"is_paid"`
	PaidDate     *time.Time      `json:"paid_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Expense is an operating cost dated on its own expense_date axis.
type Expense struct {
	ID          int             `json:"id"`
	Concept     string          `json:"concept"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedByID int             `json:"created_by_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AdSpend is advertising spend for one platform and date.
type AdSpend struct {
	ID        int             `json:"id"`
	Platform  string          `json:"platform"`
	Amount    decimal.Decimal `json:"amount"`
	SpendDate time.Time       `json:"spend_date"`
	CreatedAt time.Time       `json:"created_at"`
}

// SalaryPayment is a salary owed to a team member, settled with MarkSalaryPaid.
type SalaryPayment struct {
	ID           int             `json:"id"`
	TeamMemberID int             `json:"team_member_id"`
	Concept      string          `json:"concept"`
	Amount       decimal.Decimal `json:"amount"`
	IsPaid       bool            `json:"is_paid"`
	PaidDate     *time.Time      `json:"paid_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ManualTransaction is a free-form ledger adjustment (ingreso or egreso).
// The only ledger row type that supports deletion.
type ManualTransaction struct {
	ID        int             `json:"id"`
	Type      ManualTxType    `json:"type"`
	Concept   string          `json:"concept"`
	Amount    decimal.Decimal `json:"amount"`
	TxDate    time.Time       `json:"tx_date"`
	CreatedAt time.Time       `json:"created_at"`
}

// ActivityEntry is one append-only activity-log row.
type ActivityEntry struct {
	ID         int       `json:"id"`
	ActorID    int       `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int       `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is a row-based notification for one team member.
type Notification struct {
	ID           int       `json:"id"`
	TeamMemberID int       `json:"team_member_id"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountingSummary is the period-scoped financial picture. Payments,
// expenses, ad spend and manual transactions are anchored on their own
// money-movement dates; revenue and commissions follow the payments that
// moved in the period; salaries and entity counts anchor on creation time.
type AccountingSummary struct {
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	CashCollected decimal.Decimal `json:"cash_collected"`
	CashNet       decimal.Decimal `json:"cash_net"`
	BankFees      decimal.Decimal `json:"bank_fees"`
	Revenue       decimal.Decimal `json:"revenue"`

	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	TotalAdSpend      decimal.Decimal `json:"total_ad_spend"`
	TotalSalaries     decimal.Decimal `json:"total_salaries"`
	TotalCommissions  decimal.Decimal `json:"total_commissions"`
	UnpaidCommissions decimal.Decimal `json:"unpaid_commissions"`
	ManualIncome      decimal.Decimal `json:"manual_income"`
	ManualDeductions  decimal.Decimal `json:"manual_deductions"`

	Margin decimal.Decimal `json:"margin"`

	TotalSets        int `json:"total_sets"`
	TotalClients     int `json:"total_clients"`
	TotalDeals       int `json:"total_deals"`
	ClosedDealsCount int `json:"closed_deals_count"`

	CostPerClient decimal.Decimal `json:"cost_per_client"`
	CostPerSet    decimal.Decimal `json:"cost_per_set"`
	CostPerCall   decimal.Decimal `json:"cost_per_call"`
	CostPerClosed decimal.Decimal `json:"cost_per_closed"`
}
