package dto

import (
	"time"

	"posada/internal/core/apperror"
	"posada/internal/core/types"
	"posada/internal/domain/billing/invoice"
	"posada/internal/domain/stays"
)

// InvoicePreviewQuery is the query string for GET /stays/:id/invoice-preview.
// Override fields are strings so that a supplied zero ("0") is distinct
// from an absent parameter.
type InvoicePreviewQuery struct {
	CheckoutDate        string `form:"checkout_date"`
	NightsOverride      *int   `form:"nights_override"`
	RateOverride        string `form:"rate_override"`
	DiscountOverridePct string `form:"discount_override_pct"`
	TaxOverrideMode     string `form:"tax_override_mode"`
	TaxOverrideValue    string `form:"tax_override_value"`
	IncludeItems        *bool  `form:"include_items"`
}

// ToPreviewOptions parses the raw query into domain options.
func (q *InvoicePreviewQuery) ToPreviewOptions() (stays.PreviewOptions, error) {
	opts := stays.PreviewOptions{
		IncludeItems: true,
	}
	if q.IncludeItems != nil {
		opts.IncludeItems = *q.IncludeItems
	}

	if q.CheckoutDate != "" {
		d, err := time.Parse(time.DateOnly, q.CheckoutDate)
		if err != nil {
			return opts, apperror.NewValidation("invalid checkout_date, expected YYYY-MM-DD").
				WithDetail("checkout_date", q.CheckoutDate)
		}
		opts.CandidateCheckout = &d
	}

	opts.Overrides.Nights = q.NightsOverride

	var err error
	if opts.Overrides.Rate, err = parseMoney("rate_override", q.RateOverride); err != nil {
		return opts, err
	}
	if opts.Overrides.DiscountPct, err = parseMoney("discount_override_pct", q.DiscountOverridePct); err != nil {
		return opts, err
	}
	if opts.Overrides.TaxCustomValue, err = parseMoney("tax_override_value", q.TaxOverrideValue); err != nil {
		return opts, err
	}

	if q.TaxOverrideMode != "" {
		mode := invoice.TaxMode(q.TaxOverrideMode)
		opts.Overrides.TaxMode = &mode
	}

	return opts, nil
}

// CheckoutRequest is the body for POST /stays/:id/checkout.
// Money overrides unmarshal from JSON numbers or numeric strings.
type CheckoutRequest struct {
	CheckoutDate        string       `json:"checkout_date"`
	NightsOverride      *int         `json:"nights_override"`
	RateOverride        *types.Money `json:"rate_override"`
	DiscountOverridePct *types.Money `json:"discount_override_pct"`
	TaxOverrideMode     string       `json:"tax_override_mode"`
	TaxOverrideValue    *types.Money `json:"tax_override_value"`
	Justification       string       `json:"justification" binding:"required"`
	AllowCloseWithDebt  bool         `json:"allow_close_with_debt"`
}

// ToCheckoutRequest converts the payload into the domain request.
func (r *CheckoutRequest) ToCheckoutRequest() (stays.CheckoutRequest, error) {
	req := stays.CheckoutRequest{
		Justification:      r.Justification,
		AllowCloseWithDebt: r.AllowCloseWithDebt,
	}
	req.IncludeItems = true

	if r.CheckoutDate != "" {
		d, err := time.Parse(time.DateOnly, r.CheckoutDate)
		if err != nil {
			return req, apperror.NewValidation("invalid checkout_date, expected YYYY-MM-DD").
				WithDetail("checkout_date", r.CheckoutDate)
		}
		req.CandidateCheckout = &d
	}

	req.Overrides = invoice.Overrides{
		Nights:         r.NightsOverride,
		Rate:           r.RateOverride,
		DiscountPct:    r.DiscountOverridePct,
		TaxCustomValue: r.TaxOverrideValue,
	}
	if r.TaxOverrideMode != "" {
		mode := invoice.TaxMode(r.TaxOverrideMode)
		req.Overrides.TaxMode = &mode
	}

	return req, nil
}

func parseMoney(field, raw string) (*types.Money, error) {
	if raw == "" {
		return nil, nil
	}
	m, err := types.NewMoneyFromString(raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid decimal value").
			WithDetail(field, raw)
	}
	return &m, nil
}
