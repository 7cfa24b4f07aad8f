package core_test

import (
	"context"
	"testing"
	"time"

	"agency-pipeline/internal/core"

	"github.com/shopspring/decimal"
)

func timePtr(v time.Time) *time.Time { return &v }

func TestSummarize_EmptyPeriodIsAllZeroes(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	reports := core.NewReportingService(pool)
	ledger := core.NewLedgerService(pool)
	ctx := context.Background()

	// Costs exist in the window, payments do not.
	if _, err := ledger.RecordExpense(ctx, "oficina", decimal.NewFromInt(200), time.Now(), adminID); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 0, 1)
	sum, err := reports.Summarize(ctx, &from, &to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !sum.Revenue.IsZero() || !sum.TotalCommissions.IsZero() || !sum.CashCollected.IsZero() {
		t.Errorf("Expected zero money flow, got revenue %s commissions %s cash %s",
			sum.Revenue, sum.TotalCommissions, sum.CashCollected)
	}
	if !sum.TotalExpenses.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected expenses 200, got %s", sum.TotalExpenses)
	}
	// No division fault with zero denominators.
	for name, v := range map[string]decimal.Decimal{
		"costPerClient": sum.CostPerClient,
		"costPerSet":    sum.CostPerSet,
		"costPerCall":   sum.CostPerCall,
		"costPerClosed": sum.CostPerClosed,
	} {
		if !v.IsZero() {
			t.Errorf("%s: expected 0, got %s", name, v)
		}
	}
	if !sum.Margin.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("Expected margin -200, got %s", sum.Margin)
	}
}

func TestSummarize_FullPicture(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	deals := core.NewDealService(pool, core.NewNotificationService(pool))
	ledger := core.NewLedgerService(pool)
	reports := core.NewReportingService(pool)
	ctx := context.Background()

	// One closed deal, fully collected on a 3-month plan:
	// gross 1000, fee 75, net 925, commissions 46.25 + 92.50 = 138.75.
	set := mustCreateSet(t, pipeline)
	months := 3
	if _, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:                set.ID,
		ServiceSold:          core.Service90Day,
		RevenueTotal:         decimal.NewFromInt(1000),
		AmountCollectedToday: decimal.NewFromInt(1000),
		PaymentMethod:        "stripe",
		InstallmentMonths:    &months,
		ActorID:              closerID,
	}); err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	if _, err := ledger.RecordExpense(ctx, "software", decimal.NewFromInt(100), time.Now(), adminID); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	if _, err := ledger.RecordAdSpend(ctx, "meta", decimal.NewFromInt(250), time.Now(), adminID); err != nil {
		t.Fatalf("RecordAdSpend failed: %v", err)
	}
	if _, err := ledger.RecordSalary(ctx, setterID, "base agosto", decimal.NewFromInt(300), adminID); err != nil {
		t.Fatalf("RecordSalary failed: %v", err)
	}
	if _, err := ledger.RecordManualTransaction(ctx, core.ManualIngreso, "reembolso proveedor", decimal.NewFromInt(50), time.Now(), adminID); err != nil {
		t.Fatalf("RecordManualTransaction failed: %v", err)
	}
	if _, err := ledger.RecordManualTransaction(ctx, core.ManualEgreso, "comisión bancaria extra", decimal.NewFromInt(20), time.Now(), adminID); err != nil {
		t.Fatalf("RecordManualTransaction failed: %v", err)
	}

	sum, err := reports.Summarize(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	check := func(name string, got, want decimal.Decimal) {
		t.Helper()
		if !got.Equal(want) {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
	check("cashCollected", sum.CashCollected, decimal.NewFromInt(1000))
	check("bankFees", sum.BankFees, decimal.NewFromInt(75))
	check("cashNet", sum.CashNet, decimal.NewFromInt(925))
	check("revenue", sum.Revenue, decimal.NewFromInt(1000))
	check("totalCommissions", sum.TotalCommissions, decimal.RequireFromString("138.75"))
	check("unpaidCommissions", sum.UnpaidCommissions, decimal.RequireFromString("138.75"))
	check("totalExpenses", sum.TotalExpenses, decimal.NewFromInt(100))
	check("totalAdSpend", sum.TotalAdSpend, decimal.NewFromInt(250))
	check("totalSalaries", sum.TotalSalaries, decimal.NewFromInt(300))
	check("manualIncome", sum.ManualIncome, decimal.NewFromInt(50))
	check("manualDeductions", sum.ManualDeductions, decimal.NewFromInt(20))

	// margin = 925 + 50 − 100 − 300 − 138.75 − 250 − 20 = 166.25
	check("margin", sum.Margin, decimal.RequireFromString("166.25"))

	if sum.TotalSets != 1 || sum.TotalClients != 1 || sum.ClosedDealsCount != 1 {
		t.Errorf("Wrong counts: sets %d clients %d closed %d", sum.TotalSets, sum.TotalClients, sum.ClosedDealsCount)
	}
	// Unit costs all divide ad spend by a count of 1.
	check("costPerClient", sum.CostPerClient, decimal.NewFromInt(250))
	check("costPerSet", sum.CostPerSet, decimal.NewFromInt(250))
	check("costPerCall", sum.CostPerCall, decimal.NewFromInt(250))
	check("costPerClosed", sum.CostPerClosed, decimal.NewFromInt(250))
}

func TestSummarize_PaymentAnchoringExcludesOutOfPeriodDeals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	deals := core.NewDealService(pool, core.NewNotificationService(pool))
	reports := core.NewReportingService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)
	if _, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:                set.ID,
		ServiceSold:          core.Service90Day,
		RevenueTotal:         decimal.NewFromInt(1000),
		AmountCollectedToday: decimal.NewFromInt(1000),
		PaymentMethod:        "stripe",
		ActorID:              closerID,
	}); err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	// Move the payment out of the window we are about to query. The deal row
	// itself keeps its in-period created_at.
	if _, err := pool.Exec(ctx,
		"UPDATE payments SET payment_date = NOW() - INTERVAL '60 days'"); err != nil {
		t.Fatalf("backdate payment: %v", err)
	}

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 0, 1)
	sum, err := reports.Summarize(ctx, &from, &to)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !sum.Revenue.IsZero() {
		t.Errorf("Out-of-period payment must exclude revenue, got %s", sum.Revenue)
	}
	if !sum.TotalCommissions.IsZero() {
		t.Errorf("Out-of-period payment must exclude commissions, got %s", sum.TotalCommissions)
	}
	// The deal and set were created in the period, so counts still see them.
	if sum.ClosedDealsCount != 1 {
		t.Errorf("Closed deal count anchors on created_at, expected 1 got %d", sum.ClosedDealsCount)
	}

	// The window that does contain the payment sees the money.
	past := time.Now().AddDate(0, 0, -90)
	cutoff := time.Now().AddDate(0, 0, -30)
	sum, err = reports.Summarize(ctx, &past, &cutoff)
	if err != nil {
		t.Fatalf("Summarize (past window) failed: %v", err)
	}
	if !sum.Revenue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Past window must carry the revenue, got %s", sum.Revenue)
	}
}

func TestSummarize_OpenEndedBounds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	payments := core.NewPaymentService(pool)
	reports := core.NewReportingService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)
	if _, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: set.ID, Gross: decimal.NewFromInt(500), Method: "stripe", ActorID: adminID,
	}); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}

	// Only a lower bound.
	sum, err := reports.Summarize(ctx, timePtr(time.Now().AddDate(0, 0, -1)), nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !sum.CashCollected.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Lower-bound-only window: expected 500, got %s", sum.CashCollected)
	}

	// Only an upper bound, in the past.
	sum, err = reports.Summarize(ctx, nil, timePtr(time.Now().AddDate(0, 0, -1)))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !sum.CashCollected.IsZero() {
		t.Errorf("Past-only window: expected 0, got %s", sum.CashCollected)
	}
}
