package core

import "github.com/shopspring/decimal"

// Installment fee tiers by plan length. An absent or unrecognized plan
// behaves as "no plan": 0% fee, net equals gross.
var (
	feeTier3  = decimal.RequireFromString("0.075")
	feeTier6  = decimal.RequireFromString("0.10")
	feeTier12 = decimal.RequireFromString("0.14")
)

// Commission rates as a fraction of a payment's net amount.
var (
	setterRate = decimal.RequireFromString("0.05")
	closerRate = decimal.RequireFromString("0.10")
)

// CommissionRole identifies which cut of a payment's net a commission pays.
type CommissionRole string

const (
	RoleSetter CommissionRole = "setter"
	RoleCloser CommissionRole = "closer"
)

// FeeBreakdown is the result of applying the installment fee table to a
// gross payment amount. NetAmount is always gross minus FeeAmount.
type FeeBreakdown struct {
	FeePercentage decimal.Decimal `json:"fee_percentage"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
}

// FeePercentage returns the fee fraction for an installment plan length.
func FeePercentage(installmentMonths *int) decimal.Decimal {
	if installmentMonths == nil {
		return decimal.Zero
	}
	switch *installmentMonths {
	case 3:
		return feeTier3
	case 6:
		return feeTier6
	case 12:
		return feeTier12
	default:
		return decimal.Zero
	}
}

// ComputeFee converts a gross payment into its fee and net amounts.
// Pure and deterministic; callers persist the breakdown alongside the payment.
func ComputeFee(gross decimal.Decimal, installmentMonths *int) FeeBreakdown {
	pct := FeePercentage(installmentMonths)
	fee := gross.Mul(pct)
	return FeeBreakdown{
		FeePercentage: pct,
		FeeAmount:     fee,
		NetAmount:     gross.Sub(fee),
	}
}

// CommissionRate returns the payout fraction for a role. Unknown roles pay
// nothing; the two known roles are the only ones the pipeline creates.
func CommissionRate(role CommissionRole) decimal.Decimal {
	switch role {
	case RoleSetter:
		return setterRate
	case RoleCloser:
		return closerRate
	default:
		return decimal.Zero
	}
}

// ComputeCommission returns the commission owed for a role on a net amount.
// Every payment produces exactly two commissions: setter and closer.
func ComputeCommission(net decimal.Decimal, role CommissionRole) decimal.Decimal {
	return net.Mul(CommissionRate(role))
}
