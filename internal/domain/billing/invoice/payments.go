package invoice

import (
	"fmt"

	"posada/internal/core/types"
)

// paymentsResult is the outcome of payment reconciliation.
type paymentsResult struct {
	// Applied are the non-reversed payments entering the total,
	// in snapshot order.
	Applied []PaymentRecord

	Total   types.Money
	Balance types.Money
}

// reconcilePayments nets non-reversed payments against the grand total.
// Reversed payments never enter the sum; they stay on the snapshot for
// audit display only.
func reconcilePayments(payments []PaymentRecord, grandTotal types.Money) paymentsResult {
	res := paymentsResult{Total: types.Zero()}

	for _, p := range payments {
		if p.Reversed {
			continue
		}
		res.Applied = append(res.Applied, p)
		res.Total = res.Total.Add(p.Amount)
	}

	res.Total = types.RoundCents(res.Total)
	res.Balance = grandTotal.Sub(res.Total)
	return res
}

// paymentWarnings emits diagnostics for the balance state.
func paymentWarnings(res paymentsResult, grandTotal types.Money) []Warning {
	var out []Warning

	switch {
	case res.Balance.IsPositive():
		out = append(out, Warning{
			Code:     CodeBalanceDue,
			Message:  fmt.Sprintf("Outstanding balance: %s", res.Balance.StringFixed(2)),
			Severity: SeverityWarning,
		})
	case res.Balance.IsNegative():
		out = append(out, Warning{
			Code:     CodeOverpayment,
			Message:  fmt.Sprintf("Overpayment: %s", res.Balance.Abs().StringFixed(2)),
			Severity: SeverityInfo,
		})
	}

	if res.Total.GreaterThan(grandTotal) {
		out = append(out, Warning{
			Code:     CodePaymentsExceedTotal,
			Message:  fmt.Sprintf("Payments (%s) exceed invoice total (%s)", res.Total.StringFixed(2), grandTotal.StringFixed(2)),
			Severity: SeverityWarning,
		})
	}

	return out
}
