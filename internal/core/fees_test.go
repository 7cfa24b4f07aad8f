package core_test

import (
	"testing"

	"agency-pipeline/internal/core"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name              string
		gross             string
		installmentMonths *int
		wantPct           string
		wantFee           string
		wantNet           string
	}{
		{"no installment plan", "100", nil, "0", "0", "100"},
		{"3 month plan", "100", intPtr(3), "0.075", "7.5", "92.5"},
		{"6 month plan", "100", intPtr(6), "0.10", "10", "90"},
		{"12 month plan", "1000", intPtr(12), "0.14", "140", "860"},
		{"unknown plan falls back to no fee", "500", intPtr(9), "0", "0", "500"},
		{"zero gross", "0", intPtr(3), "0.075", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ComputeFee(decimal.RequireFromString(tt.gross), tt.installmentMonths)

			if !got.FeePercentage.Equal(decimal.RequireFromString(tt.wantPct)) {
				t.Errorf("FeePercentage: want %s, got %s", tt.wantPct, got.FeePercentage)
			}
			if !got.FeeAmount.Equal(decimal.RequireFromString(tt.wantFee)) {
				t.Errorf("FeeAmount: want %s, got %s", tt.wantFee, got.FeeAmount)
			}
			if !got.NetAmount.Equal(decimal.RequireFromString(tt.wantNet)) {
				t.Errorf("NetAmount: want %s, got %s", tt.wantNet, got.NetAmount)
			}
		})
	}
}

func TestComputeFee_NetPlusFeeEqualsGross(t *testing.T) {
	grosses := []string{"1", "99.99", "1234.56", "100000"}
	plans := []*int{nil, intPtr(3), intPtr(6), intPtr(12), intPtr(24)}

	for _, g := range grosses {
		gross := decimal.RequireFromString(g)
		for _, p := range plans {
			fb := core.ComputeFee(gross, p)
			if !fb.NetAmount.Add(fb.FeeAmount).Equal(gross) {
				t.Errorf("gross %s plan %v: net %s + fee %s != gross", g, p, fb.NetAmount, fb.FeeAmount)
			}
		}
	}
}

func TestComputeCommission(t *testing.T) {
	net := decimal.RequireFromString("92.5")

	setter := core.ComputeCommission(net, core.RoleSetter)
	if !setter.Equal(decimal.RequireFromString("4.625")) {
		t.Errorf("setter commission: want 4.625, got %s", setter)
	}

	closer := core.ComputeCommission(net, core.RoleCloser)
	if !closer.Equal(decimal.RequireFromString("9.25")) {
		t.Errorf("closer commission: want 9.25, got %s", closer)
	}
}

func TestComputeCommission_TotalIsFifteenPercent(t *testing.T) {
	fifteen := decimal.RequireFromString("0.15")

	for _, n := range []string{"1", "92.5", "860", "12345.67"} {
		net := decimal.RequireFromString(n)
		total := core.ComputeCommission(net, core.RoleSetter).Add(core.ComputeCommission(net, core.RoleCloser))
		if !total.Equal(net.Mul(fifteen)) {
			t.Errorf("net %s: setter+closer = %s, want %s", n, total, net.Mul(fifteen))
		}
	}
}
