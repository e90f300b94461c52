package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posada/internal/core/apperror"
	"posada/internal/domain/billing/invoice"
)

func TestInvoicePreviewQuery_AbsentOverridesStayNil(t *testing.T) {
	q := &InvoicePreviewQuery{}

	opts, err := q.ToPreviewOptions()
	require.NoError(t, err)

	assert.Nil(t, opts.CandidateCheckout)
	assert.Nil(t, opts.Overrides.Nights)
	assert.Nil(t, opts.Overrides.Rate)
	assert.Nil(t, opts.Overrides.DiscountPct)
	assert.Nil(t, opts.Overrides.TaxMode)
	assert.Nil(t, opts.Overrides.TaxCustomValue)
	assert.True(t, opts.IncludeItems, "items are included by default")
}

func TestInvoicePreviewQuery_SuppliedZeroIsAnOverride(t *testing.T) {
	zero := 0
	q := &InvoicePreviewQuery{
		NightsOverride:      &zero,
		DiscountOverridePct: "0",
	}

	opts, err := q.ToPreviewOptions()
	require.NoError(t, err)

	require.NotNil(t, opts.Overrides.Nights)
	assert.Equal(t, 0, *opts.Overrides.Nights)
	require.NotNil(t, opts.Overrides.DiscountPct)
	assert.True(t, opts.Overrides.DiscountPct.IsZero())
}

func TestInvoicePreviewQuery_ParsesAllFields(t *testing.T) {
	nights := 3
	include := false
	q := &InvoicePreviewQuery{
		CheckoutDate:        "2025-03-08",
		NightsOverride:      &nights,
		RateOverride:        "180.50",
		DiscountOverridePct: "15",
		TaxOverrideMode:     "custom",
		TaxOverrideValue:    "50",
		IncludeItems:        &include,
	}

	opts, err := q.ToPreviewOptions()
	require.NoError(t, err)

	require.NotNil(t, opts.CandidateCheckout)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), *opts.CandidateCheckout)
	assert.Equal(t, 3, *opts.Overrides.Nights)
	assert.Equal(t, "180.5", opts.Overrides.Rate.String())
	assert.Equal(t, "15", opts.Overrides.DiscountPct.String())
	assert.Equal(t, invoice.TaxCustom, *opts.Overrides.TaxMode)
	assert.Equal(t, "50", opts.Overrides.TaxCustomValue.String())
	assert.False(t, opts.IncludeItems)
}

func TestInvoicePreviewQuery_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		query InvoicePreviewQuery
	}{
		{"bad date", InvoicePreviewQuery{CheckoutDate: "08/03/2025"}},
		{"bad rate", InvoicePreviewQuery{RateOverride: "abc"}},
		{"bad discount", InvoicePreviewQuery{DiscountOverridePct: "ten"}},
		{"bad tax value", InvoicePreviewQuery{TaxOverrideValue: "--"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.ToPreviewOptions()
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestCheckoutRequest_ToDomain(t *testing.T) {
	body := &CheckoutRequest{
		CheckoutDate:       "2025-03-08",
		TaxOverrideMode:    "exempt",
		Justification:      "guest dispute resolved by manager",
		AllowCloseWithDebt: true,
	}

	req, err := body.ToCheckoutRequest()
	require.NoError(t, err)

	assert.Equal(t, "guest dispute resolved by manager", req.Justification)
	assert.True(t, req.AllowCloseWithDebt)
	assert.True(t, req.IncludeItems, "committed invoices always carry line items")
	require.NotNil(t, req.Overrides.TaxMode)
	assert.Equal(t, invoice.TaxExempt, *req.Overrides.TaxMode)
	require.NotNil(t, req.CandidateCheckout)
}
