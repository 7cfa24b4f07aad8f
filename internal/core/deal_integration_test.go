package core_test

import (
	"context"
	"errors"
	"testing"

	"agency-pipeline/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func newDealStack(pool *pgxpool.Pool) (core.PipelineService, core.DealService, core.ClientService, core.NotificationService) {
	notifSvc := core.NewNotificationService(pool)
	return core.NewPipelineService(pool), core.NewDealService(pool, notifSvc), core.NewClientService(pool), notifSvc
}

func TestCloseDeal_FullPaymentYieldsClosed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, clients, notifs := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	months := 3
	res, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:                set.ID,
		ServiceSold:          core.Service90Day,
		RevenueTotal:         decimal.NewFromInt(1000),
		AmountCollectedToday: decimal.NewFromInt(1000),
		PaymentMethod:        "stripe",
		InstallmentMonths:    &months,
		ActorID:              closerID,
	})
	if err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	got, err := pipeline.GetSet(ctx, set.ID)
	if err != nil {
		t.Fatalf("GetSet failed: %v", err)
	}
	if got.Status != core.StatusClosed {
		t.Errorf("Expected closed, got %s", got.Status)
	}

	if res.Client.Status != core.ClientOnboarding {
		t.Errorf("New client must start in onboarding, got %s", res.Client.Status)
	}
	if res.Client.Name != set.ProspectName {
		t.Errorf("Client name must copy the prospect, got %q", res.Client.Name)
	}
	if res.Deal.Outcome != core.OutcomeClosed {
		t.Errorf("Expected closed outcome, got %s", res.Deal.Outcome)
	}

	fetched, err := deals.GetDeal(ctx, res.Deal.ID)
	if err != nil {
		t.Fatalf("GetDeal failed: %v", err)
	}
	if !fetched.RevenueTotal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Persisted revenue mismatch: %s", fetched.RevenueTotal)
	}

	items, err := clients.ListOnboardingItems(ctx, res.Client.ID)
	if err != nil {
		t.Fatalf("ListOnboardingItems failed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("Expected 5 onboarding items, got %d", len(items))
	}
	for _, it := range items {
		if it.IsDone {
			t.Errorf("Onboarding item %q must start undone", it.Label)
		}
	}

	phases, err := clients.ListProgramPhases(ctx, res.Client.ID)
	if err != nil {
		t.Fatalf("ListProgramPhases failed: %v", err)
	}
	if len(phases) != 7 {
		t.Fatalf("Expected 7 phases, got %d", len(phases))
	}
	if phases[0].PhaseNumber != 1 || phases[6].PhaseNumber != 7 {
		t.Errorf("Phases out of order: first %d, last %d", phases[0].PhaseNumber, phases[6].PhaseNumber)
	}
	if phases[6].EndDay != 90 {
		t.Errorf("Schedule must span 90 days, last phase ends at day %d", phases[6].EndDay)
	}
	for _, ph := range phases {
		if ph.Status != core.PhasePendiente {
			t.Errorf("Phase %d must start pendiente, got %s", ph.PhaseNumber, ph.Status)
		}
	}

	// Initial payment: 1000 gross on a 3-month plan → 75 fee, 925 net.
	payments := core.NewPaymentService(pool)
	ps, err := payments.ListPaymentsBySet(ctx, set.ID)
	if err != nil {
		t.Fatalf("ListPaymentsBySet failed: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("Expected 1 payment, got %d", len(ps))
	}
	if !ps[0].FeeAmount.Equal(decimal.NewFromInt(75)) || !ps[0].Net.Equal(decimal.NewFromInt(925)) {
		t.Errorf("Wrong fee breakdown: fee %s net %s", ps[0].FeeAmount, ps[0].Net)
	}

	// The closer gets notified.
	ns, err := notifs.ListNotifications(ctx, closerID, true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(ns) != 1 {
		t.Errorf("Expected 1 unread notification for the closer, got %d", len(ns))
	}
}

func TestCloseDeal_PartialPaymentYieldsClosedPendiente(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, _, _ := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

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

	got, err := pipeline.GetSet(ctx, set.ID)
	if err != nil {
		t.Fatalf("GetSet failed: %v", err)
	}
	if got.Status != core.StatusClosedPendiente {
		t.Errorf("Expected closed_pendiente, got %s", got.Status)
	}
}

func TestCloseDeal_NoPaymentMeansNoLedgerRows(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, _, _ := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	_, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:        set.ID,
		ServiceSold:  "consultoria",
		RevenueTotal: decimal.NewFromInt(2500),
		ActorID:      closerID,
	})
	if err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	got, _ := pipeline.GetSet(ctx, set.ID)
	if got.Status != core.StatusClosedPendiente {
		t.Errorf("Expected closed_pendiente, got %s", got.Status)
	}

	payments := core.NewPaymentService(pool)
	ps, err := payments.ListPaymentsBySet(ctx, set.ID)
	if err != nil {
		t.Fatalf("ListPaymentsBySet failed: %v", err)
	}
	if len(ps) != 0 {
		t.Errorf("Expected no payments, got %d", len(ps))
	}

	cs, err := payments.ListCommissions(ctx, nil, false)
	if err != nil {
		t.Fatalf("ListCommissions failed: %v", err)
	}
	if len(cs) != 0 {
		t.Errorf("Expected no commissions, got %d", len(cs))
	}
}

func TestCloseDeal_NonProgramServiceGetsNoPhases(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, clients, _ := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	res, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:        set.ID,
		ServiceSold:  "consultoria",
		RevenueTotal: decimal.NewFromInt(500),
		ActorID:      closerID,
	})
	if err != nil {
		t.Fatalf("CloseDeal failed: %v", err)
	}

	phases, err := clients.ListProgramPhases(ctx, res.Client.ID)
	if err != nil {
		t.Fatalf("ListProgramPhases failed: %v", err)
	}
	if len(phases) != 0 {
		t.Errorf("Expected no phases for non-program service, got %d", len(phases))
	}

	items, err := clients.ListOnboardingItems(ctx, res.Client.ID)
	if err != nil {
		t.Fatalf("ListOnboardingItems failed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("Onboarding checklist still applies: expected 5 items, got %d", len(items))
	}
}

func TestCloseDeal_TerminalSetRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, _, _ := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)
	if err := pipeline.RegisterDisqualification(ctx, set.ID, "no apto", closerID); err != nil {
		t.Fatalf("RegisterDisqualification failed: %v", err)
	}

	_, err := deals.CloseDeal(ctx, core.CloseDealInput{
		SetID:        set.ID,
		ServiceSold:  core.Service90Day,
		RevenueTotal: decimal.NewFromInt(1000),
		ActorID:      closerID,
	})
	var invalid *core.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %v", err)
	}

	// Nothing from the failed closure may survive.
	var clientCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE set_id = $1", set.ID).Scan(&clientCount); err != nil {
		t.Fatalf("count clients: %v", err)
	}
	if clientCount != 0 {
		t.Errorf("Failed closure must not create a client, found %d", clientCount)
	}
}

func TestCloseDeal_ValidationErrors(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	pipeline, deals, _, _ := newDealStack(pool)
	ctx := context.Background()

	set := mustCreateSet(t, pipeline)

	cases := []core.CloseDealInput{
		{SetID: set.ID, ServiceSold: "", RevenueTotal: decimal.NewFromInt(100), ActorID: closerID},
		{SetID: set.ID, ServiceSold: "x", RevenueTotal: decimal.Zero, ActorID: closerID},
		{SetID: set.ID, ServiceSold: "x", RevenueTotal: decimal.NewFromInt(100), AmountCollectedToday: decimal.NewFromInt(-5), ActorID: closerID},
		{SetID: set.ID, ServiceSold: "x", RevenueTotal: decimal.NewFromInt(100), AmountCollectedToday: decimal.NewFromInt(50), ActorID: closerID}, // no method
	}
	for i, in := range cases {
		_, err := deals.CloseDeal(ctx, in)
		var verr *core.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}
