package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerService owns the non-payment side of the books: operating expenses,
// ad spend, team salaries and free-form manual adjustments. Manual
// transactions are the only ledger rows that can be deleted; everything else
// is append-only.
type LedgerService interface {
	RecordExpense(ctx context.Context, concept string, amount decimal.Decimal, expenseDate time.Time, actorID int) (*Expense, error)
	ListExpenses(ctx context.Context, from, to *time.Time) ([]Expense, error)

	RecordAdSpend(ctx context.Context, platform string, amount decimal.Decimal, spendDate time.Time, actorID int) (*AdSpend, error)
	ListAdSpend(ctx context.Context, from, to *time.Time) ([]AdSpend, error)

	RecordSalary(ctx context.Context, teamMemberID int, concept string, amount decimal.Decimal, actorID int) (*SalaryPayment, error)
	// MarkSalaryPaid settles a salary. Idempotent: a repeated call keeps the
	// original paid date.
	MarkSalaryPaid(ctx context.Context, salaryID int, actorID int) error
	ListSalaries(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]SalaryPayment, error)

	RecordManualTransaction(ctx context.Context, txType ManualTxType, concept string, amount decimal.Decimal, txDate time.Time, actorID int) (*ManualTransaction, error)
	DeleteManualTransaction(ctx context.Context, txID int, actorID int) error
	ListManualTransactions(ctx context.Context, from, to *time.Time) ([]ManualTransaction, error)
}

type ledgerService struct {
	pool *pgxpool.Pool
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(pool *pgxpool.Pool) LedgerService {
	return &ledgerService{pool: pool}
}

// dateRangeClause appends "col BETWEEN"-style bounds to a query, returning the
// amended query and args. Either bound may be nil.
func dateRangeClause(query, col string, from, to *time.Time, args []any) (string, []any) {
	joiner := " WHERE "
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf("%s%s >= $%d", joiner, col, len(args))
		joiner = " AND "
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf("%s%s <= $%d", joiner, col, len(args))
	}
	return query, args
}

func (s *ledgerService) RecordExpense(ctx context.Context, concept string, amount decimal.Decimal, expenseDate time.Time, actorID int) (*Expense, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if concept == "" {
		return nil, &ValidationError{Msg: "expense concept is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "expense amount must be positive"}
	}
	if expenseDate.IsZero() {
		expenseDate = time.Now()
	}

	var e Expense
	err := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (concept, amount, expense_date, created_by_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, concept, amount, expense_date, created_by_id, created_at
	`, concept, amount, expenseDate, actorID).Scan(
		&e.ID, &e.Concept, &e.Amount, &e.ExpenseDate, &e.CreatedByID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	return &e, nil
}

func (s *ledgerService) ListExpenses(ctx context.Context, from, to *time.Time) ([]Expense, error) {
	query := "SELECT id, concept, amount, expense_date, created_by_id, created_at FROM expenses"
	query, args := dateRangeClause(query, "expense_date", from, to, nil)
	query += " ORDER BY expense_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Concept, &e.Amount, &e.ExpenseDate, &e.CreatedByID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ledgerService) RecordAdSpend(ctx context.Context, platform string, amount decimal.Decimal, spendDate time.Time, actorID int) (*AdSpend, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if platform == "" {
		return nil, &ValidationError{Msg: "platform is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "ad spend amount must be positive"}
	}
	if spendDate.IsZero() {
		spendDate = time.Now()
	}

	var a AdSpend
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ad_spend (platform, amount, spend_date)
		VALUES ($1, $2, $3)
		RETURNING id, platform, amount, spend_date, created_at
	`, platform, amount, spendDate).Scan(&a.ID, &a.Platform, &a.Amount, &a.SpendDate, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ad spend: %w", err)
	}
	return &a, nil
}

func (s *ledgerService) ListAdSpend(ctx context.Context, from, to *time.Time) ([]AdSpend, error) {
	query := "SELECT id, platform, amount, spend_date, created_at FROM ad_spend"
	query, args := dateRangeClause(query, "spend_date", from, to, nil)
	query += " ORDER BY spend_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad spend: %w", err)
	}
	defer rows.Close()

	var out []AdSpend
	for rows.Next() {
		var a AdSpend
		if err := rows.Scan(&a.ID, &a.Platform, &a.Amount, &a.SpendDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ad spend: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *ledgerService) RecordSalary(ctx context.Context, teamMemberID int, concept string, amount decimal.Decimal, actorID int) (*SalaryPayment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if teamMemberID <= 0 {
		return nil, &ValidationError{Msg: "team member is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "salary amount must be positive"}
	}

	var sp SalaryPayment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO salary_payments (team_member_id, concept, amount)
		VALUES ($1, $2, $3)
		RETURNING id, team_member_id, COALESCE(concept, ''), amount, is_paid, paid_date, created_at
	`, teamMemberID, concept, amount).Scan(
		&sp.ID, &sp.TeamMemberID, &sp.Concept, &sp.Amount, &sp.IsPaid, &sp.PaidDate, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert salary for member %d: %w", teamMemberID, err)
	}
	return &sp, nil
}

func (s *ledgerService) MarkSalaryPaid(ctx context.Context, salaryID int, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE salary_payments
		SET is_paid = TRUE, paid_date = COALESCE(paid_date, NOW())
		WHERE id = $1
	`, salaryID)
	if err != nil {
		return fmt.Errorf("failed to mark salary %d paid: %w", salaryID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "salary payment", ID: salaryID}
	}

	if err := logActivityTx(ctx, tx, actorID, "salary_paid", "salary_payment", salaryID, ""); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit salary settlement: %w", err)
	}
	return nil
}

func (s *ledgerService) ListSalaries(ctx context.Context, teamMemberID *int, unpaidOnly bool) ([]SalaryPayment, error) {
	query := `
		SELECT id, team_member_id, COALESCE(concept, ''), amount, is_paid, paid_date, created_at
		FROM salary_payments`
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
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query salaries: %w", err)
	}
	defer rows.Close()

	var out []SalaryPayment
	for rows.Next() {
		var sp SalaryPayment
		if err := rows.Scan(&sp.ID, &sp.TeamMemberID, &sp.Concept, &sp.Amount, &sp.IsPaid, &sp.PaidDate, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan salary: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *ledgerService) RecordManualTransaction(ctx context.Context, txType ManualTxType, concept string, amount decimal.Decimal, txDate time.Time, actorID int) (*ManualTransaction, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if txType != ManualIngreso && txType != ManualEgreso {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown transaction type %q", txType)}
	}
	if concept == "" {
		return nil, &ValidationError{Msg: "transaction concept is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "transaction amount must be positive"}
	}
	if txDate.IsZero() {
		txDate = time.Now()
	}

	var mt ManualTransaction
	err := s.pool.QueryRow(ctx, `
		INSERT INTO manual_transactions (type, concept, amount, tx_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, type, concept, amount, tx_date, created_at
	`, txType, concept, amount, txDate).Scan(&mt.ID, &mt.Type, &mt.Concept, &mt.Amount, &mt.TxDate, &mt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert manual transaction: %w", err)
	}
	return &mt, nil
}

func (s *ledgerService) DeleteManualTransaction(ctx context.Context, txID int, actorID int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, "DELETE FROM manual_transactions WHERE id = $1", txID)
	if err != nil {
		return fmt.Errorf("failed to delete manual transaction %d: %w", txID, err)
	}
	if ct.RowsAffected() == 0 {
		return &NotFoundError{Entity: "manual transaction", ID: txID}
	}

	if err := logActivityTx(ctx, tx, actorID, "manual_tx_deleted", "manual_transaction", txID, ""); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}
	return nil
}

func (s *ledgerService) ListManualTransactions(ctx context.Context, from, to *time.Time) ([]ManualTransaction, error) {
	query := "SELECT id, type, concept, amount, tx_date, created_at FROM manual_transactions"
	query, args := dateRangeClause(query, "tx_date", from, to, nil)
	query += " ORDER BY tx_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query manual transactions: %w", err)
	}
	defer rows.Close()

	var out []ManualTransaction
	for rows.Next() {
		var mt ManualTransaction
		if err := rows.Scan(&mt.ID, &mt.Type, &mt.Concept, &mt.Amount, &mt.TxDate, &mt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manual transaction: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}
