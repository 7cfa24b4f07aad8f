package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agency-pipeline/internal/ai"
	"agency-pipeline/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool          *pgxpool.Pool
	pipeline      core.PipelineService
	deals         core.DealService
	payments      core.PaymentService
	clients       core.ClientService
	ledger        core.LedgerService
	reports       core.ReportingService
	team          core.TeamService
	notifications core.NotificationService
	activity      core.ActivityService
	agent         *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	pipeline core.PipelineService,
	deals core.DealService,
	payments core.PaymentService,
	clients core.ClientService,
	ledger core.LedgerService,
	reports core.ReportingService,
	team core.TeamService,
	notifications core.NotificationService,
	activity core.ActivityService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		pool:          pool,
		pipeline:      pipeline,
		deals:         deals,
		payments:      payments,
		clients:       clients,
		ledger:        ledger,
		reports:       reports,
		team:          team,
		notifications: notifications,
		activity:      activity,
		agent:         agent,
	}
}

// parseDate parses an optional 2006-01-02 bound. Empty means unbounded.
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, &core.ValidationError{Msg: fmt.Sprintf("invalid %s %q, want YYYY-MM-DD", field, raw)}
	}
	return &t, nil
}

// endOfDay pushes an upper bound to the last instant of its day so a
// same-day range covers the whole day.
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	e := t.Add(24*time.Hour - time.Second)
	return &e
}

func (s *appService) AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error) {
	member, err := s.team.GetTeamMemberByEmail(ctx, email)
	if err != nil {
		return nil, &core.UnauthorizedError{Reason: "invalid credentials"}
	}
	if !member.IsActive {
		return nil, &core.UnauthorizedError{Reason: "account is deactivated"}
	}
	if !s.team.VerifyPassword(member, password) {
		return nil, &core.UnauthorizedError{Reason: "invalid credentials"}
	}
	return &UserSession{UserID: member.ID, FirstName: member.FirstName, Role: member.Role}, nil
}

func (s *appService) GetTeamMember(ctx context.Context, memberID int) (*TeamMemberResult, error) {
	m, err := s.team.GetTeamMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &TeamMemberResult{Member: m}, nil
}

func (s *appService) ListTeamMembers(ctx context.Context, activeOnly bool) (*TeamListResult, error) {
	members, err := s.team.ListTeamMembers(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return &TeamListResult{Members: members}, nil
}

func (s *appService) CreateTeamMember(ctx context.Context, req CreateTeamMemberRequest) (*TeamMemberResult, error) {
	m, err := s.team.CreateTeamMember(ctx, core.CreateTeamMemberInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		ActorID:   req.ActorID,
	})
	if err != nil {
		return nil, err
	}
	return &TeamMemberResult{Member: m}, nil
}

func (s *appService) SetTeamMemberActive(ctx context.Context, memberID int, active bool, actorID int) error {
	return s.team.SetTeamMemberActive(ctx, memberID, active, actorID)
}

func (s *appService) CreateSet(ctx context.Context, req CreateSetRequest) (*SetResult, error) {
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, &core.ValidationError{Msg: fmt.Sprintf("invalid scheduled_at %q, want RFC 3339", req.ScheduledAt)}
	}

	set, err := s.pipeline.CreateSet(ctx, core.CreateSetInput{
		ProspectName:  req.ProspectName,
		ProspectEmail: req.ProspectEmail,
		ProspectPhone: req.ProspectPhone,
		SetterID:      req.SetterID,
		CloserID:      req.CloserID,
		ScheduledAt:   scheduledAt,
		Service:       req.Service,
		IsDuplicate:   req.IsDuplicate,
		Notes:         req.Notes,
		ActorID:       req.ActorID,
	})
	if err != nil {
		return nil, err
	}
	return &SetResult{Set: set}, nil
}

func (s *appService) GetSetDetail(ctx context.Context, setID int) (*SetDetailResult, error) {
	set, err := s.pipeline.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	history, err := s.pipeline.GetStatusHistory(ctx, setID)
	if err != nil {
		return nil, err
	}
	deals, err := s.deals.ListDealsBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListPaymentsBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	return &SetDetailResult{Set: set, History: history, Deals: deals, Payments: payments}, nil
}

func (s *appService) ListSets(ctx context.Context, status string) (*SetListResult, error) {
	var filter *core.SetStatus
	if status != "" {
		st := core.SetStatus(status)
		filter = &st
	}
	sets, err := s.pipeline.ListSets(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SetListResult{Sets: sets}, nil
}

func (s *appService) TransitionSetStatus(ctx context.Context, req TransitionRequest) (*SetResult, error) {
	set, err := s.pipeline.TransitionStatus(ctx, req.SetID, core.SetStatus(req.Target), req.ActorID, req.Notes)
	if err != nil {
		return nil, err
	}
	return &SetResult{Set: set}, nil
}

func (s *appService) RegisterFollowUp(ctx context.Context, req FollowUpRequest) error {
	date, err := parseDate("follow_up_date", req.FollowUpDate)
	if err != nil {
		return err
	}
	if date == nil {
		return &core.ValidationError{Msg: "follow_up_date is required"}
	}
	return s.pipeline.RegisterFollowUp(ctx, req.SetID, *date, req.Notes, req.ActorID)
}

func (s *appService) RegisterDisqualification(ctx context.Context, req DisqualifyRequest) error {
	return s.pipeline.RegisterDisqualification(ctx, req.SetID, req.Reason, req.ActorID)
}

func (s *appService) CloseDeal(ctx context.Context, req CloseDealRequest) (*CloseDealResult, error) {
	res, err := s.deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:                req.SetID,
		ServiceSold:          req.ServiceSold,
		RevenueTotal:         req.RevenueTotal,
		AmountCollectedToday: req.AmountCollectedToday,
		PaymentMethod:        req.PaymentMethod,
		InstallmentMonths:    req.InstallmentMonths,
		ActorID:              req.ActorID,
	})
	if err != nil {
		return nil, err
	}
	set, err := s.pipeline.GetSet(ctx, req.SetID)
	if err != nil {
		return nil, err
	}
	return &CloseDealResult{Deal: res.Deal, Client: res.Client, Set: set}, nil
}

func (s *appService) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*PaymentResult, error) {
	date, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}
	in := core.RegisterPaymentInput{
		SetID:             req.SetID,
		Gross:             req.Gross,
		Method:            req.Method,
		InstallmentMonths: req.InstallmentMonths,
		Notes:             req.Notes,
		ActorID:           req.ActorID,
	}
	if date != nil {
		in.PaymentDate = *date
	}
	p, err := s.payments.RegisterPayment(ctx, in)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: p}, nil
}

func (s *appService) MarkCommissionPaid(ctx context.Context, commissionID, actorID int) error {
	return s.payments.MarkCommissionPaid(ctx, commissionID, actorID)
}

func (s *appService) ListCommissions(ctx context.Context, teamMemberID *int, unpaidOnly bool) (*CommissionListResult, error) {
	cs, err := s.payments.ListCommissions(ctx, teamMemberID, unpaidOnly)
	if err != nil {
		return nil, err
	}
	return &CommissionListResult{Commissions: cs}, nil
}

func (s *appService) ListClients(ctx context.Context, status string) (*ClientListResult, error) {
	var filter *core.ClientStatus
	if status != "" {
		st := core.ClientStatus(status)
		filter = &st
	}
	clients, err := s.clients.ListClients(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

func (s *appService) GetClientDetail(ctx context.Context, clientID int) (*ClientDetailResult, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	items, err := s.clients.ListOnboardingItems(ctx, clientID)
	if err != nil {
		return nil, err
	}
	phases, err := s.clients.ListProgramPhases(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &ClientDetailResult{Client: client, Onboarding: items, Phases: phases}, nil
}

func (s *appService) UpdateClientStatus(ctx context.Context, clientID int, status string, actorID int) (*ClientResult, error) {
	c, err := s.clients.UpdateClientStatus(ctx, clientID, core.ClientStatus(status), actorID)
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: c}, nil
}

func (s *appService) AssignClient(ctx context.Context, clientID, teamMemberID, actorID int) error {
	return s.clients.AssignClient(ctx, clientID, teamMemberID, actorID)
}

func (s *appService) SetOnboardingItemDone(ctx context.Context, itemID int, done bool, actorID int) error {
	return s.clients.SetOnboardingItemDone(ctx, itemID, done, actorID)
}

func (s *appService) UpdatePhaseStatus(ctx context.Context, phaseID int, status string, actorID int) error {
	return s.clients.UpdatePhaseStatus(ctx, phaseID, core.PhaseStatus(status), actorID)
}

func (s *appService) RecordExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error) {
	date, err := parseDate("expense_date", req.ExpenseDate)
	if err != nil {
		return nil, err
	}
	var d time.Time
	if date != nil {
		d = *date
	}
	return s.ledger.RecordExpense(ctx, req.Concept, req.Amount, d, req.ActorID)
}

func (s *appService) ListExpenses(ctx context.Context, from, to string) ([]core.Expense, error) {
	lo, hi, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListExpenses(ctx, lo, hi)
}

func (s *appService) RecordAdSpend(ctx context.Context, req AdSpendRequest) (*core.AdSpend, error) {
	date, err := parseDate("spend_date", req.SpendDate)
	if err != nil {
		return nil, err
	}
	var d time.Time
	if date != nil {
		d = *date
	}
	return s.ledger.RecordAdSpend(ctx, req.Platform, req.Amount, d, req.ActorID)
}

func (s *appService) ListAdSpend(ctx context.Context, from, to string) ([]core.AdSpend, error) {
	lo, hi, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListAdSpend(ctx, lo, hi)
}

func (s *appService) RecordSalary(ctx context.Context, req SalaryRequest) (*core.SalaryPayment, error) {
	return s.ledger.RecordSalary(ctx, req.TeamMemberID, req.Concept, req.Amount, req.ActorID)
}

func (s *appService) MarkSalaryPaid(ctx context.Context, salaryID, actorID int) error {
	return s.ledger.MarkSalaryPaid(ctx, salaryID, actorID)
}

func (s *appService) ListSalaries(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]core.SalaryPayment, error) {
	return s.ledger.ListSalaries(ctx, teamMemberID, unpaidOnly)
}

func (s *appService) RecordManualTransaction(ctx context.Context, req ManualTxRequest) (*core.ManualTransaction, error) {
	date, err := parseDate("tx_date", req.TxDate)
	if err != nil {
		return nil, err
	}
	var d time.Time
	if date != nil {
		d = *date
	}
	return s.ledger.RecordManualTransaction(ctx, core.ManualTxType(req.Type), req.Concept, req.Amount, d, req.ActorID)
}

func (s *appService) DeleteManualTransaction(ctx context.Context, txID, actorID int) error {
	return s.ledger.DeleteManualTransaction(ctx, txID, actorID)
}

func (s *appService) ListManualTransactions(ctx context.Context, from, to string) ([]core.ManualTransaction, error) {
	lo, hi, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListManualTransactions(ctx, lo, hi)
}

func parseRange(from, to string) (*time.Time, *time.Time, error) {
	lo, err := parseDate("from", from)
	if err != nil {
		return nil, nil, err
	}
	hi, err := parseDate("to", to)
	if err != nil {
		return nil, nil, err
	}
	return lo, endOfDay(hi), nil
}

func (s *appService) SummarizeLedger(ctx context.Context, from, to string) (*core.AccountingSummary, error) {
	lo, hi, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reports.Summarize(ctx, lo, hi)
}

func (s *appService) ListNotifications(ctx context.Context, teamMemberID int, unreadOnly bool) ([]core.Notification, error) {
	return s.notifications.ListNotifications(ctx, teamMemberID, unreadOnly)
}

func (s *appService) MarkNotificationRead(ctx context.Context, notificationID int) error {
	return s.notifications.MarkNotificationRead(ctx, notificationID)
}

func (s *appService) ListActivity(ctx context.Context, limit int) ([]core.ActivityEntry, error) {
	return s.activity.ListActivity(ctx, limit)
}

// AskAssistant builds a read-only snapshot (all-time summary plus pipeline
// status counts and unpaid commissions) and hands it to the agent.
func (s *appService) AskAssistant(ctx context.Context, question string) (*AssistantResult, error) {
	if question == "" {
		return nil, &core.ValidationError{Msg: "question is required"}
	}

	summary, err := s.reports.Summarize(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	statusCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT status, COUNT(*) FROM sets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count sets by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		statusCounts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unpaid, err := s.payments.ListCommissions(ctx, nil, true)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(map[string]any{
		"summary_all_time":   summary,
		"sets_by_status":     statusCounts,
		"unpaid_commissions": unpaid,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	reply, err := s.agent.AnswerQuestion(ctx, question, string(snapshot))
	if err != nil {
		return nil, err
	}
	return &AssistantResult{Reply: reply}, nil
}
