package invoice

import (
	"fmt"

	"posada/internal/core/apperror"
	"posada/internal/core/types"
)

// StandardTaxRate is the fixed VAT applied to the room subtotal under the
// normal regime. Hard-coded business policy; a configurability candidate.
var StandardTaxRate = types.MustMoney("0.21")

// taxResult is the outcome of the tax engine.
type taxResult struct {
	Mode TaxMode

	// Total is the taxes subtotal entering the grand total.
	Total types.Money

	// StandardAmount is the rate-based portion (normal mode only).
	StandardAmount types.Money

	// FeesSuppressed means explicit fee charges were listed but not summed
	// (exempt and custom modes).
	FeesSuppressed bool

	OverrideApplied bool
}

// computeTax applies one of the three tax regimes.
//
//	normal: StandardTaxRate on the room subtotal plus explicit fee charges
//	exempt: zero; explicit fee charges are suppressed, not summed
//	custom: exactly the supplied value; fee charges likewise suppressed
func computeTax(roomSubtotal types.Money, groups chargeGroups, ov Overrides) (taxResult, error) {
	mode := TaxNormal
	if ov.TaxMode != nil {
		mode = *ov.TaxMode
		if !mode.Valid() {
			return taxResult{}, apperror.NewValidation("unknown tax mode").
				WithDetail("tax_override_mode", string(*ov.TaxMode))
		}
	}

	if ov.TaxCustomValue != nil && mode != TaxCustom {
		return taxResult{}, apperror.NewValidation("tax_override_value requires tax_override_mode=custom").
			WithDetail("tax_override_mode", string(mode))
	}

	res := taxResult{Mode: mode, OverrideApplied: mode != TaxNormal}

	switch mode {
	case TaxNormal:
		res.StandardAmount = types.RoundCents(roomSubtotal.Mul(StandardTaxRate))
		res.Total = res.StandardAmount.Add(groups.feesTotal())

	case TaxExempt:
		res.Total = types.Zero()
		res.FeesSuppressed = true

	case TaxCustom:
		if ov.TaxCustomValue == nil {
			return taxResult{}, apperror.NewValidation("tax mode custom requires tax_override_value")
		}
		if ov.TaxCustomValue.IsNegative() {
			return taxResult{}, apperror.NewValidation("tax_override_value must be >= 0").
				WithDetail("tax_override_value", ov.TaxCustomValue.String())
		}
		res.Total = types.RoundCents(*ov.TaxCustomValue)
		res.FeesSuppressed = true
	}

	return res, nil
}

// taxWarnings emits diagnostics for any non-standard regime.
func taxWarnings(res taxResult) []Warning {
	if !res.OverrideApplied {
		return nil
	}
	return []Warning{{
		Code:     CodeTaxOverride,
		Message:  fmt.Sprintf("Tax regime overridden: %s (%s)", res.Mode, res.Total.StringFixed(2)),
		Severity: SeverityInfo,
	}}
}
