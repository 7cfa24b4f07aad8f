package app

import "github.com/shopspring/decimal"

// Dates in request types are 2006-01-02 strings; the service parses and
// validates them so adapters stay dumb.

type CreateTeamMemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ActorID   int    `json:"-"`
}

type CreateSetRequest struct {
	ProspectName  string `json:"prospect_name"`
	ProspectEmail string `json:"prospect_email"`
	ProspectPhone string `json:"prospect_phone"`
	SetterID      int    `json:"setter_id"`
	CloserID      int    `json:"closer_id"`
	ScheduledAt   string `json:"scheduled_at"` // RFC 3339
	Service       string `json:"service"`
	IsDuplicate   bool   `json:"is_duplicate"`
	Notes         string `json:"notes"`
	ActorID       int    `json:"-"`
}

type TransitionRequest struct {
	SetID   int    `json:"-"`
	Target  string `json:"target"`
	Notes   string `json:"notes"`
	ActorID int    `json:"-"`
}

type FollowUpRequest struct {
	SetID        int    `json:"-"`
	FollowUpDate string `json:"follow_up_date"`
	Notes        string `json:"notes"`
	ActorID      int    `json:"-"`
}

type DisqualifyRequest struct {
	SetID   int    `json:"-"`
	Reason  string `json:"reason"`
	ActorID int    `json:"-"`
}

type CloseDealRequest struct {
	SetID                int             `json:"-"`
	ServiceSold          string          `json:"service_sold"`
	RevenueTotal         decimal.Decimal `json:"revenue_total"`
	AmountCollectedToday decimal.Decimal `json:"amount_collected_today"`
	PaymentMethod        string          `json:"payment_method"`
	InstallmentMonths    *int            `json:"installment_months"`
	ActorID              int             `json:"-"`
}

type RegisterPaymentRequest struct {
	SetID             int             `json:"-"`
	Gross             decimal.Decimal `json:"gross"`
	Method            string          `json:"method"`
	InstallmentMonths *int            `json:"installment_months"`
	PaymentDate       string          `json:"payment_date"`
	Notes             string          `json:"notes"`
	ActorID           int             `json:"-"`
}

type ExpenseRequest struct {
	Concept     string          `json:"concept"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate string          `json:"expense_date"`
	ActorID     int             `json:"-"`
}

type AdSpendRequest struct {
	Platform  string          `json:"platform"`
	Amount    decimal.Decimal `json:"amount"`
	SpendDate string          `json:"spend_date"`
	ActorID   int             `json:"-"`
}

type SalaryRequest struct {
	TeamMemberID int             `json:"team_member_id"`
	Concept      string          `json:"concept"`
	Amount       decimal.Decimal `json:"amount"`
	ActorID      int             `json:"-"`
}

type ManualTxRequest struct {
	Type    string          `json:"type"` // ingreso | egreso
	Concept string          `json:"concept"`
	Amount  decimal.Decimal `json:"amount"`
	TxDate  string          `json:"tx_date"`
	ActorID int             `json:"-"`
}
