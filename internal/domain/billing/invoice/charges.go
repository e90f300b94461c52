package invoice

import (
	"fmt"

	"posada/internal/core/types"
)

// chargeGroups partitions a stay's charge records.
// Room-related amounts are synthesized from rate and nights, never from
// charge records, so no group exists for them here.
type chargeGroups struct {
	// Generic covers every kind except fee and discount.
	Generic []ChargeRecord
	// Fees are explicit tax/fee records handled by the tax engine.
	Fees []ChargeRecord
	// Discounts are explicit discount records handled by the discount engine.
	Discounts []ChargeRecord
}

// classifyCharges buckets charge records by kind, preserving input order.
func classifyCharges(charges []ChargeRecord) chargeGroups {
	var g chargeGroups
	for _, c := range charges {
		switch c.Kind {
		case ChargeFee:
			g.Fees = append(g.Fees, c)
		case ChargeDiscount:
			g.Discounts = append(g.Discounts, c)
		default:
			g.Generic = append(g.Generic, c)
		}
	}
	return g
}

// genericTotal sums generic charge totals. Zero and negative totals stay
// in the sum; they are flagged, not excluded.
func (g chargeGroups) genericTotal() types.Money {
	sum := types.Zero()
	for _, c := range g.Generic {
		sum = sum.Add(c.Total)
	}
	return types.RoundCents(sum)
}

// feesTotal sums explicit fee charge totals.
func (g chargeGroups) feesTotal() types.Money {
	sum := types.Zero()
	for _, c := range g.Fees {
		sum = sum.Add(c.Total)
	}
	return types.RoundCents(sum)
}

// explicitDiscountTotal sums absolute values of explicit discount records.
func (g chargeGroups) explicitDiscountTotal() types.Money {
	sum := types.Zero()
	for _, c := range g.Discounts {
		sum = sum.Add(c.Total.Abs())
	}
	return types.RoundCents(sum)
}

// chargeWarnings emits one UNPRICED_CHARGE per zero or negative generic
// charge. Duplicates are intentional: one warning per offending record.
func chargeWarnings(g chargeGroups) []Warning {
	var out []Warning
	for _, c := range g.Generic {
		if c.Total.Sign() <= 0 {
			out = append(out, Warning{
				Code:     CodeUnpricedCharge,
				Message:  fmt.Sprintf("Charge without a price: %s", c.Description),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
