package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReportingService computes the period financial summary. Stateless and safe
// for concurrent callers with different windows.
type ReportingService interface {
	// Summarize aggregates the ledger over [from, to]. Nil bounds mean
	// all time. Two anchoring axes apply: money rows (payments, expenses,
	// ad spend, manual transactions) filter on their own movement date, and
	// revenue/commissions follow the payments that moved in the window;
	// salaries and entity counts filter on creation time.
	Summarize(ctx context.Context, from, to *time.Time) (*AccountingSummary, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// windowArgs normalizes nil bounds to sentinel extremes so one parameterized
// query shape serves both bounded and all-time summaries.
func windowArgs(from, to *time.Time) (time.Time, time.Time) {
	lo := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	return lo, hi
}

// safeDiv returns num/den, or zero when den is zero.
func safeDiv(num decimal.Decimal, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return num.Div(decimal.NewFromInt(int64(den)))
}

func (s *reportingService) Summarize(ctx context.Context, from, to *time.Time) (*AccountingSummary, error) {
	lo, hi := windowArgs(from, to)
	sum := &AccountingSummary{PeriodStart: from, PeriodEnd: to}

	// Axis 1: payments by their own payment_date.
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(gross), 0), COALESCE(SUM(net), 0), COALESCE(SUM(fee_amount), 0)
		FROM payments
		WHERE payment_date BETWEEN $1 AND $2
	`, lo, hi).Scan(&sum.CashCollected, &sum.CashNet, &sum.BankFees)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	// Revenue follows the payment set: a closed deal counts only when at
	// least one of its set's payments moved inside the window.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(d.revenue_total), 0)
		FROM deals d
		WHERE d.outcome = $1
		  AND EXISTS (
			SELECT 1 FROM payments p
			WHERE p.set_id = d.set_id AND p.payment_date BETWEEN $2 AND $3
		  )
	`, OutcomeClosed, lo, hi).Scan(&sum.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	// Commissions ride their payment's date, not their own creation time.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(c.amount), 0),
		       COALESCE(SUM(c.amount) FILTER (WHERE NOT c.is_paid), 0)
		FROM commissions c
		JOIN payments p ON p.id = c.payment_id
		WHERE p.payment_date BETWEEN $1 AND $2
	`, lo, hi).Scan(&sum.TotalCommissions, &sum.UnpaidCommissions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate commissions: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE expense_date BETWEEN $1 AND $2
	`, lo, hi).Scan(&sum.TotalExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ad_spend WHERE spend_date BETWEEN $1 AND $2
	`, lo, hi).Scan(&sum.TotalAdSpend)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ad spend: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE type = $1), 0),
		       COALESCE(SUM(amount) FILTER (WHERE type = $2), 0)
		FROM manual_transactions
		WHERE tx_date BETWEEN $3 AND $4
	`, ManualIngreso, ManualEgreso, lo, hi).Scan(&sum.ManualIncome, &sum.ManualDeductions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate manual transactions: %w", err)
	}

	// Axis 2: salaries and entity counts by creation time.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM salary_payments WHERE created_at BETWEEN $1 AND $2
	`, lo, hi).Scan(&sum.TotalSalaries)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate salaries: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM sets    WHERE created_at BETWEEN $1 AND $2),
		       (SELECT COUNT(*) FROM clients WHERE created_at BETWEEN $1 AND $2),
		       (SELECT COUNT(*) FROM deals   WHERE created_at BETWEEN $1 AND $2),
		       (SELECT COUNT(*) FROM deals   WHERE created_at BETWEEN $1 AND $2 AND outcome = $3)
	`, lo, hi, OutcomeClosed).Scan(&sum.TotalSets, &sum.TotalClients, &sum.TotalDeals, &sum.ClosedDealsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}

	sum.Margin = sum.CashNet.
		Add(sum.ManualIncome).
		Sub(sum.TotalExpenses).
		Sub(sum.TotalSalaries).
		Sub(sum.TotalCommissions).
		Sub(sum.TotalAdSpend).
		Sub(sum.ManualDeductions)

	sum.CostPerClient = safeDiv(sum.TotalAdSpend, sum.TotalClients)
	sum.CostPerSet = safeDiv(sum.TotalAdSpend, sum.TotalSets)
	sum.CostPerCall = safeDiv(sum.TotalAdSpend, sum.TotalDeals)
	sum.CostPerClosed = safeDiv(sum.TotalAdSpend, sum.ClosedDealsCount)

	return sum, nil
}
