package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"posada/internal/core/apperror"
	"posada/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// discountResult is the outcome of the discount engine.
type discountResult struct {
	Total types.Money

	// OverrideApplied means the percentage override superseded any
	// explicit discount charge records.
	OverrideApplied bool
	Pct             types.Money
	OverrideAmount  types.Money
}

// computeDiscount applies the percentage override against the room
// subtotal, or falls back to explicit discount charge records.
//
// A supplied override always wins, even at 0%: explicit discount records
// are then suppressed from totals (still listed, with a note) so nothing
// is double-counted.
func computeDiscount(roomSubtotal types.Money, groups chargeGroups, pctOverride *types.Money) (discountResult, error) {
	if pctOverride != nil {
		pct := *pctOverride
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return discountResult{}, apperror.NewValidation("discount override must be between 0 and 100").
				WithDetail("discount_override_pct", pct.String())
		}

		amount := types.Percent(roomSubtotal, pct)
		return discountResult{
			Total:           amount,
			OverrideApplied: true,
			Pct:             pct,
			OverrideAmount:  amount,
		}, nil
	}

	return discountResult{Total: groups.explicitDiscountTotal()}, nil
}

// discountWarnings emits diagnostics for the discount path taken.
func discountWarnings(res discountResult) []Warning {
	if !res.OverrideApplied {
		return nil
	}
	return []Warning{{
		Code:     CodeDiscountOverride,
		Message:  fmt.Sprintf("Discount override applied: %s%% = %s", res.Pct.String(), res.OverrideAmount.StringFixed(2)),
		Severity: SeverityInfo,
	}}
}
