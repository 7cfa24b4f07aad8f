package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-pipeline/internal/core"

	"github.com/shopspring/decimal"
)

func TestRegisterPayment_CreatesBothCommissions(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	payments := core.NewPaymentService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	months := 6
	p, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID:             set.ID,
		Gross:             decimal.NewFromInt(1000),
		Method:            "stripe",
		InstallmentMonths: &months,
		ActorID:           closerID,
	})
	if err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}

	// 6-month plan: 10% fee → 100 fee, 900 net.
	if !p.FeeAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected fee 100, got %s", p.FeeAmount)
	}
	if !p.Net.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Expected net 900, got %s", p.Net)
	}

	fetched, err := payments.GetPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if !fetched.Gross.Equal(p.Gross) || fetched.SetID != set.ID {
		t.Errorf("Persisted payment mismatch: %+v", fetched)
	}

	cs, err := payments.ListCommissions(ctx, nil, false)
	if err != nil {
		t.Fatalf("ListCommissions failed: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("Expected 2 commissions, got %d", len(cs))
	}

	byRole := map[core.CommissionRole]core.Commission{}
	for _, c := range cs {
		byRole[c.Role] = c
	}
	// setter 5% of 900 = 45, closer 10% of 900 = 90
	if s := byRole[core.RoleSetter]; !s.Amount.Equal(decimal.NewFromInt(45)) || s.TeamMemberID != setterID {
		t.Errorf("Wrong setter commission: %+v", s)
	}
	if c := byRole[core.RoleCloser]; !c.Amount.Equal(decimal.NewFromInt(90)) || c.TeamMemberID != closerID {
		t.Errorf("Wrong closer commission: %+v", c)
	}
	for _, c := range cs {
		if c.IsPaid {
			t.Errorf("Commission %d must start unpaid", c.ID)
		}
	}
}

func TestRegisterPayment_SettlesClosedPendiente(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	deals := core.NewDealService(pool, core.NewNotificationService(pool))
	payments := core.NewPaymentService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	// Close with 400 of 1000 collected → closed_pendiente.
	_, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:                set.ID,
		ServiceSold:          core.Service90Day,
		RevenueTotal:         decimal.NewFromInt(1000),
		AmountCollectedToday: decimal.NewFromInt(400),
		PaymentMethod:        "transferencia",
		ActorID:              closerID,
	})
	if err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	// 400 + 300 = 700 < 1000 → still pending.
	if _, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: set.ID, Gross: decimal.NewFromInt(300), Method: "transferencia", ActorID: adminID,
	}); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}
	got, _ := pipeline.GetSet(ctx, set.ID)
	if got.Status != core.StatusClosedPendiente {
		t.Errorf("Below threshold: expected closed_pendiente, got %s", got.Status)
	}

	// 700 + 300 = 1000 ≥ 1000 → settles to closed.
	if _, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: set.ID, Gross: decimal.NewFromInt(300), Method: "transferencia", ActorID: adminID,
	}); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}
	got, _ = pipeline.GetSet(ctx, set.ID)
	if got.Status != core.StatusClosed {
		t.Errorf("At threshold: expected closed, got %s", got.Status)
	}

	// All three payments link to the same client.
	ps, err := payments.ListPaymentsBySet(ctx, set.ID)
	if err != nil {
		t.Fatalf("ListPaymentsBySet failed: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("Expected 3 payments, got %d", len(ps))
	}
	for _, p := range ps {
		if p.ClientID == nil {
			t.Errorf("Payment %d must reference the client", p.ID)
		}
	}
}

func TestMarkCommissionPaid_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	payments := core.NewPaymentService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)
	if _, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: set.ID, Gross: decimal.NewFromInt(500), Method: "stripe", ActorID: adminID,
	}); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}

	cs, _ := payments.ListCommissions(ctx, nil, true)
	if len(cs) != 2 {
		t.Fatalf("Expected 2 unpaid commissions, got %d", len(cs))
	}
	target := cs[0].ID

	if err := payments.MarkCommissionPaid(ctx, target, adminID); err != nil {
		t.Fatalf("MarkCommissionPaid failed: %v", err)
	}

	var firstPaid *time.Time
	for _, c := range mustListAll(t, payments, ctx) {
		if c.ID == target {
			if !c.IsPaid || c.PaidDate == nil {
				t.Fatalf("Commission not settled: %+v", c)
			}
			firstPaid = c.PaidDate
		}
	}

	// Second call is a no-op: still paid, original paid date kept.
	if err := payments.MarkCommissionPaid(ctx, target, adminID); err != nil {
		t.Fatalf("Second MarkCommissionPaid failed: %v", err)
	}
	for _, c := range mustListAll(t, payments, ctx) {
		if c.ID == target {
			if c.PaidDate == nil || !c.PaidDate.Equal(*firstPaid) {
				t.Errorf("Paid date changed on repeat call: %v vs %v", c.PaidDate, firstPaid)
			}
		}
	}

	unpaid, _ := payments.ListCommissions(ctx, nil, true)
	if len(unpaid) != 1 {
		t.Errorf("Expected 1 unpaid commission left, got %d", len(unpaid))
	}
}

func mustListAll(t *testing.T, payments core.PaymentService, ctx context.Context) []core.Commission {
	t.Helper()
	cs, err := payments.ListCommissions(ctx, nil, false)
	if err != nil {
		t.Fatalf("ListCommissions failed: %v", err)
	}
	return cs
}

func TestRegisterPayment_Validation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline := core.NewPipelineService(pool)
	payments := core.NewPaymentService(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	_, err := payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: set.ID, Gross: decimal.Zero, Method: "stripe", ActorID: adminID,
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Zero gross: expected ValidationError, got %v", err)
	}

	_, err = payments.RegisterPayment(ctx, core.RegisterPaymentInput{
		SetID: 99999, Gross: decimal.NewFromInt(100), Method: "stripe", ActorID: adminID,
	})
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Unknown set: expected NotFoundError, got %v", err)
	}

	err = payments.MarkCommissionPaid(ctx, 99999, adminID)
	if !errors.As(err, &notFound) {
		t.Errorf("Unknown commission: expected NotFoundError, got %v", err)
	}
}
