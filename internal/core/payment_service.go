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

// RegisterPaymentInput records one money-received event against a set.
// PaymentDate zero means "today".
type RegisterPaymentInput struct {
	SetID             int
	Gross             decimal.Decimal
	Method            string
	InstallmentMonths *int
	PaymentDate       time.Time
	Notes             string
	ActorID           int
}

// PaymentService registers payments and settles the commissions they spawn.
// Registering a payment on a closed_pendiente set settles the set to closed
// once cumulative gross reaches the deal's agreed revenue, in the same
// transaction as the payment itself.
type PaymentService interface {
	RegisterPayment(ctx context.Context, in RegisterPaymentInput) (*Payment, error)
	GetPayment(ctx context.Context, paymentID int) (*Payment, error)
	ListPaymentsBySet(ctx context.Context, setID int) ([]Payment, error)

	// MarkCommissionPaid settles a commission. Idempotent: marking an already
	// paid commission keeps its original paid date.
	MarkCommissionPaid(ctx context.Context, commissionID int, actorID int) error
	ListCommissions(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]Commission, error)
}

type paymentService struct {
	pool *pgxpool.Pool
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

// paymentInsert is the internal form shared by RegisterPayment and the
// deal-closure workflow. setterID/closerID come from the already locked set
// row so the commission targets match the set at insert time.
type paymentInsert struct {
	setID             int
	clientID          *int
	gross             decimal.Decimal
	method            string
	installmentMonths *int
	paymentDate       time.Time
	notes             string
	createdByID       int
	setterID          int
	closerID          int
}

// insertPaymentTx writes one payment row plus its two commission rows inside
// an existing transaction. The fee breakdown is computed once here and
// persisted; it is never recomputed from stored values.
func insertPaymentTx(ctx context.Context, tx pgx.Tx, in paymentInsert) (*Payment, error) {
	fb := ComputeFee(in.gross, in.installmentMonths)

	var p Payment
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (set_id, client_id, gross, method, installment_months,
		                      fee_percentage, fee_amount, net, payment_date, notes, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, set_id, client_id, gross, method, installment_months,
		          fee_percentage, fee_amount, net, payment_date, COALESCE(notes, ''), created_by_id, created_at
	`, in.setID, in.clientID, in.gross, in.method, in.installmentMonths,
		fb.FeePercentage, fb.FeeAmount, fb.NetAmount, in.paymentDate, in.notes, in.createdByID,
	).Scan(
		&p.ID, &p.SetID, &p.ClientID, &p.Gross, &p.Method, &p.InstallmentMonths,
		&p.FeePercentage, &p.FeeAmount, &p.Net, &p.PaymentDate, &p.Notes, &p.CreatedByID, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment for set %d: %w", in.setID, err)
	}

	for _, c := range []struct {
		memberID int
		role     CommissionRole
	}{
		{in.setterID, RoleSetter},
		{in.closerID, RoleCloser},
	} {
		amount := ComputeCommission(fb.NetAmount, c.role)
		if _, err := tx.Exec(ctx, `
			INSERT INTO commissions (payment_id, team_member_id, role, amount)
			VALUES ($1, $2, $3, $4)
		`, p.ID, c.memberID, c.role, amount); err != nil {
			return nil, fmt.Errorf("failed to insert %s commission for payment %d: %w", c.role, p.ID, err)
		}
	}

	if err := logActivityTx(ctx, tx, in.createdByID, "payment_registered", "payment", p.ID,
		fmt.Sprintf("set %d: gross %s via %s", in.setID, in.gross.StringFixed(2), in.method)); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *paymentService) RegisterPayment(ctx context.Context, in RegisterPaymentInput) (*Payment, error) {
	if err := requireActor(in.ActorID); err != nil {
		return nil, err
	}
	if !in.Gross.IsPositive() {
		return nil, &ValidationError{Msg: "payment amount must be positive"}
	}
	if in.Method == "" {
		return nil, &ValidationError{Msg: "payment method is required"}
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status             SetStatus
		setterID, closerID int
	)
	err = tx.QueryRow(ctx,
		"SELECT status, setter_id, closer_id FROM sets WHERE id = $1 FOR UPDATE", in.SetID,
	).Scan(&status, &setterID, &closerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "set", ID: in.SetID}
		}
		return nil, fmt.Errorf("failed to fetch set %d: %w", in.SetID, err)
	}

	var clientID *int
	err = tx.QueryRow(ctx, "SELECT id FROM clients WHERE set_id = $1", in.SetID).Scan(&clientID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up client for set %d: %w", in.SetID, err)
	}

	p, err := insertPaymentTx(ctx, tx, paymentInsert{
		setID:             in.SetID,
		clientID:          clientID,
		gross:             in.Gross,
		method:            in.Method,
		installmentMonths: in.InstallmentMonths,
		paymentDate:       in.PaymentDate,
		notes:             in.Notes,
		createdByID:       in.ActorID,
		setterID:          setterID,
		closerID:          closerID,
	})
	if err != nil {
		return nil, err
	}

	// Installment collection: once cumulative gross covers the agreed revenue,
	// the set settles from closed_pendiente to closed.
	if status == StatusClosedPendiente {
		var collected, revenue decimal.Decimal
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(p.gross), 0),
			       (SELECT COALESCE(MAX(d.revenue_total), 0) FROM deals d WHERE d.set_id = $1 AND d.outcome = $2)
			FROM payments p WHERE p.set_id = $1
		`, in.SetID, OutcomeClosed).Scan(&collected, &revenue)
		if err != nil {
			return nil, fmt.Errorf("failed to total payments for set %d: %w", in.SetID, err)
		}
		if revenue.IsPositive() && collected.GreaterThanOrEqual(revenue) {
			note := fmt.Sprintf("pago completado: cobrado %s de %s", collected.StringFixed(2), revenue.StringFixed(2))
			if _, err := transitionSetTx(ctx, tx, in.SetID, StatusClosed, in.ActorID, note); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return p, nil
}

const paymentColumns = `id, set_id, client_id, gross, method, installment_months,
	fee_percentage, fee_amount, net, payment_date, COALESCE(notes, ''), created_by_id, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.SetID, &p.ClientID, &p.Gross, &p.Method, &p.InstallmentMonths,
		&p.FeePercentage, &p.FeeAmount, &p.Net, &p.PaymentDate, &p.Notes, &p.CreatedByID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int) (*Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = $1", paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "payment", ID: paymentID}
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}
	return p, nil
}

func (s *paymentService) ListPaymentsBySet(ctx context.Context, setID int) ([]Payment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE set_id = $1 ORDER BY payment_date ASC, id ASC", setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for set %d: %w", setID, err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *paymentService) MarkCommissionPaid(ctx context.Context, commissionID int, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// COALESCE keeps the first paid date on repeated calls.
	ct, err := tx.Exec(ctx, `
		UPDATE commissions
		SET is_paid = TRUE, paid_date = COALESCE(paid_date, NOW())
		WHERE id = $1
	`, commissionID)
	if err != nil {
		return fmt.Errorf("failed to mark commission %d paid: %w", commissionID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "commission", ID: commissionID}
	}

	if err := logActivityTx(ctx, tx, actorID, "commission_paid", "commission", commissionID, ""); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit commission settlement: %w", err)
	}
	return nil
}

func (s *paymentService) ListCommissions(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]Commission, error) {
	query := `
		SELECT id, payment_id, team_member_id, role, amount, is_paid, paid_date, created_at
		FROM commissions`
	var (
		conds []string
		args  []any
	)
	if teamMemberID != nil {
		args = append(args, *teamMemberID)
		conds = append(conds, fmt.Sprintf("team_member_id = $%d", len(args)))
	}
	if unpaidOnly {
		conds = append(conds, "is_paid = FALSE")
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		var c Commission
		if err := rows.Scan(&c.ID, &c.PaymentID, &c.TeamMemberID, &c.Role, &c.Amount, &c.IsPaid, &c.PaidDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
