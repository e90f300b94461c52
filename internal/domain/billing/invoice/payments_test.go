package invoice

import (
	"testing"

	"posada/internal/core/id"
	"posada/internal/core/types"
)

func payment(amount string, reversed bool) PaymentRecord {
	return PaymentRecord{
		ID:       id.New(),
		Amount:   types.MustMoney(amount),
		Method:   "card",
		Reversed: reversed,
	}
}

func TestReconcilePayments_ReversedExcluded(t *testing.T) {
	res := reconcilePayments([]PaymentRecord{
		payment("50000", false),
		payment("30000", true),
		payment("20000", false),
	}, types.MustMoney("100000"))

	if res.Total.String() != "70000" {
		t.Errorf("payments total = %s, want 70000", res.Total.String())
	}
	if len(res.Applied) != 2 {
		t.Errorf("applied = %d records, want 2", len(res.Applied))
	}
	if res.Balance.String() != "30000" {
		t.Errorf("balance = %s, want 30000", res.Balance.String())
	}
}

func TestPaymentWarnings(t *testing.T) {
	grand := types.MustMoney("100000")

	tests := []struct {
		name string
		paid string
		want []string
	}{
		{name: "balance due", paid: "70000", want: []string{CodeBalanceDue}},
		{name: "settled exactly", paid: "100000", want: nil},
		{name: "overpaid", paid: "120000", want: []string{CodeOverpayment, CodePaymentsExceedTotal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcilePayments([]PaymentRecord{payment(tt.paid, false)}, grand)

			ws := paymentWarnings(res, grand)
			if len(ws) != len(tt.want) {
				t.Fatalf("got %d warnings %v, want %v", len(ws), ws, tt.want)
			}
			for i, code := range tt.want {
				if ws[i].Code != code {
					t.Errorf("warning[%d] = %s, want %s", i, ws[i].Code, code)
				}
			}
		})
	}
}

func TestPaymentWarnings_Severities(t *testing.T) {
	grand := types.MustMoney("100000")

	due := paymentWarnings(reconcilePayments(nil, grand), grand)
	if len(due) != 1 || due[0].Severity != SeverityWarning {
		t.Fatalf("BALANCE_DUE severity = %v, want warning", due)
	}

	over := paymentWarnings(reconcilePayments([]PaymentRecord{payment("120000", false)}, grand), grand)
	if over[0].Code != CodeOverpayment || over[0].Severity != SeverityInfo {
		t.Errorf("OVERPAYMENT severity = %v, want info", over)
	}
	if over[1].Code != CodePaymentsExceedTotal || over[1].Severity != SeverityWarning {
		t.Errorf("PAYMENTS_EXCEED_TOTAL severity = %v, want warning", over)
	}
}
