package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// onboardingChecklist is seeded, uncompleted, for every new client.
var onboardingChecklist = []string{
	"Enviar mensaje de bienvenida",
	"Crear grupo de WhatsApp con el cliente",
	"Enviar contrato y confirmar firma",
	"Agendar llamada de kickoff",
	"Solicitar accesos a cuenta publicitaria y CRM",
}

// phaseTemplate is one row of the fixed 90-day delivery schedule, expressed
// as day offsets from the closure date.
type phaseTemplate struct {
	number   int
	name     string
	startDay int
	endDay   int
}

var programSchedule = []phaseTemplate{
	{1, "Onboarding y diagnóstico", 0, 7},
	{2, "Fundamentos y setup", 7, 14},
	{3, "Lanzamiento de campañas", 14, 25},
	{4, "Primera revisión", 25, 30},
	{5, "Optimización", 31, 60},
	{6, "Escalamiento", 61, 90},
	{7, "Cierre y entrega", 90, 90},
}

// CloseDealInput carries everything needed to convert a set into a client.
// AmountCollectedToday of zero means no initial payment was taken.
type CloseDealInput struct {
	SetID                int
	ServiceSold          string
	RevenueTotal         decimal.Decimal
	AmountCollectedToday decimal.Decimal
	PaymentMethod        string
	InstallmentMonths    *int
	ActorID              int
}

// CloseDealResult is returned by CloseDeal.
type CloseDealResult struct {
	Deal   *Deal   `json:"deal"`
	Client *Client `json:"client"`
}

// DealService orchestrates deal closure: one transaction covering the closed
// outcome row, the client, onboarding scaffolding, the optional initial
// payment with its commissions, and the final pipeline transition. A failure
// at any step rolls the whole closure back.
type DealService interface {
	CloseDeal(ctx context.Context, in CloseDealInput) (*CloseDealResult, error)
	GetDeal(ctx context.Context, dealID int) (*Deal, error)
	ListDealsBySet(ctx context.Context, setID int) ([]Deal, error)
}

type dealService struct {
	pool     *pgxpool.Pool
	notifier Notifier
}

// NewDealService constructs a DealService. The notifier receives a message
// for the closing team member on every successful closure.
func NewDealService(pool *pgxpool.Pool, notifier Notifier) DealService {
	return &dealService{pool: pool, notifier: notifier}
}

func (s *dealService) CloseDeal(ctx context.Context, in CloseDealInput) (*CloseDealResult, error) {
	if err := requireActor(in.ActorID); err != nil {
		return nil, err
	}
	if in.ServiceSold == "" {
		return nil, &ValidationError{Msg: "service sold is required"}
	}
	if !in.RevenueTotal.IsPositive() {
		return nil, &ValidationError{Msg: "revenue total must be positive"}
	}
	if in.AmountCollectedToday.IsNegative() {
		return nil, &ValidationError{Msg: "amount collected cannot be negative"}
	}
	if in.AmountCollectedToday.IsPositive() && in.PaymentMethod == "" {
		return nil, &ValidationError{Msg: "payment method is required when collecting an amount"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the set up front; every later step works against this snapshot.
	var (
		status                      SetStatus
		setterID, closerID          int
		prospectName, prospectEmail string
		prospectPhone               string
	)
	err = tx.QueryRow(ctx, `
		SELECT status, setter_id, closer_id, prospect_name, prospect_email, prospect_phone
		FROM sets WHERE id = $1 FOR UPDATE
	`, in.SetID).Scan(&status, &setterID, &closerID, &prospectName, &prospectEmail, &prospectPhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "set", ID: in.SetID}
		}
		return nil, fmt.Errorf("failed to fetch set %d: %w", in.SetID, err)
	}

	finalStatus := StatusClosedPendiente
	if in.AmountCollectedToday.GreaterThanOrEqual(in.RevenueTotal) {
		finalStatus = StatusClosed
	}
	if !CanTransition(status, finalStatus) {
		return nil, &InvalidTransitionError{SetID: in.SetID, From: status, To: finalStatus}
	}

	// Closed outcome row.
	var deal Deal
	err = tx.QueryRow(ctx, `
		INSERT INTO deals (set_id, outcome, service_sold, revenue_total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, set_id, outcome, service_sold, revenue_total, created_at
	`, in.SetID, OutcomeClosed, in.ServiceSold, in.RevenueTotal).Scan(
		&deal.ID, &deal.SetID, &deal.Outcome, &deal.ServiceSold, &deal.RevenueTotal, &deal.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert closed deal for set %d: %w", in.SetID, err)
	}

	// Client row, copying prospect contact fields.
	var client Client
	err = tx.QueryRow(ctx, `
		INSERT INTO clients (set_id, deal_id, name, email, phone, service, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, set_id, deal_id, name, email, phone, service, status, assigned_to_id, created_at, updated_at
	`, in.SetID, deal.ID, prospectName, prospectEmail, prospectPhone, in.ServiceSold, ClientOnboarding).Scan(
		&client.ID, &client.SetID, &client.DealID, &client.Name, &client.Email, &client.Phone,
		&client.Service, &client.Status, &client.AssignedToID, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert client for deal %d: %w", deal.ID, err)
	}

	for i, label := range onboardingChecklist {
		if _, err := tx.Exec(ctx, `
			INSERT INTO onboarding_items (client_id, label, position)
			VALUES ($1, $2, $3)
		`, client.ID, label, i+1); err != nil {
			return nil, fmt.Errorf("failed to seed onboarding item %d: %w", i+1, err)
		}
	}

	if in.ServiceSold == Service90Day {
		closedAt := time.Now()
		for _, ph := range programSchedule {
			start := closedAt.AddDate(0, 0, ph.startDay)
			end := closedAt.AddDate(0, 0, ph.endDay)
			if _, err := tx.Exec(ctx, `
				INSERT INTO program_phases (client_id, phase_number, name, start_day, end_day, start_date, end_date, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, client.ID, ph.number, ph.name, ph.startDay, ph.endDay, start, end, PhasePendiente); err != nil {
				return nil, fmt.Errorf("failed to seed phase %d: %w", ph.number, err)
			}
		}
	}

	if in.AmountCollectedToday.IsPositive() {
		if _, err := insertPaymentTx(ctx, tx, paymentInsert{
			setID:             in.SetID,
			clientID:          &client.ID,
			gross:             in.AmountCollectedToday,
			method:            in.PaymentMethod,
			installmentMonths: in.InstallmentMonths,
			paymentDate:       time.Now(),
			notes:             "pago inicial al cierre",
			createdByID:       in.ActorID,
			setterID:          setterID,
			closerID:          closerID,
		}); err != nil {
			return nil, err
		}
	}

	transitionNote := fmt.Sprintf("cierre: %s pactado %s, cobrado %s",
		in.ServiceSold, in.RevenueTotal.StringFixed(2), in.AmountCollectedToday.StringFixed(2))
	if _, err := transitionSetTx(ctx, tx, in.SetID, finalStatus, in.ActorID, transitionNote); err != nil {
		return nil, err
	}

	if err := logActivityTx(ctx, tx, in.ActorID, "deal_closed", "client", client.ID,
		fmt.Sprintf("client %s created from set %d (%s)", client.Name, in.SetID, in.ServiceSold)); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyTx(ctx, tx, closerID,
		fmt.Sprintf("Cierre confirmado: %s (%s) ya es cliente #%d", client.Name, in.ServiceSold, client.ID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deal closure: %w", err)
	}

	return &CloseDealResult{Deal: &deal, Client: &client}, nil
}

func (s *dealService) GetDeal(ctx context.Context, dealID int) (*Deal, error) {
	var d Deal
	err := s.pool.QueryRow(ctx, `
		SELECT id, set_id, outcome, COALESCE(service_sold, ''), revenue_total, follow_up_date, COALESCE(reason, ''), created_at
		FROM deals WHERE id = $1
	`, dealID).Scan(&d.ID, &d.SetID, &d.Outcome, &d.ServiceSold, &d.RevenueTotal, &d.FollowUpDate, &d.Reason, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "deal", ID: dealID}
		}
		return nil, fmt.Errorf("failed to fetch deal %d: %w", dealID, err)
	}
	return &d, nil
}

func (s *dealService) ListDealsBySet(ctx context.Context, setID int) ([]Deal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, set_id, outcome, COALESCE(service_sold, ''), revenue_total, follow_up_date, COALESCE(reason, ''), created_at
		FROM deals WHERE set_id = $1 ORDER BY id ASC
	`, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals for set %d: %w", setID, err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.SetID, &d.Outcome, &d.ServiceSold, &d.RevenueTotal, &d.FollowUpDate, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}
