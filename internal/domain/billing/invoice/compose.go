package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"posada/internal/core/apperror"
	"posada/internal/core/types"
)

// Compute runs the whole pipeline: rate, nights, charge classification,
// discount, tax, payment reconciliation, warnings, composition.
//
// Hard errors are reserved for structurally invalid input: no room
// assigned, candidate checkout before check-in, or an override outside
// its range. Every other anomaly degrades to a warning so an interactive
// caller can always obtain a preview to correct mistakes.
func Compute(in ComputeInput) (*Invoice, error) {
	stay := in.Stay
	if stay == nil {
		return nil, apperror.NewValidation("stay snapshot is required")
	}
	if stay.Room == nil {
		return nil, apperror.NewNoRoomAssigned(stay.ID)
	}

	rate, err := resolveRate(stay, in.Overrides.Rate)
	if err != nil {
		return nil, err
	}

	nights, err := calcNights(stay, in.CandidateCheckout, in.Now, in.Overrides.Nights)
	if err != nil {
		return nil, err
	}

	groups := classifyCharges(stay.Charges)

	roomSubtotal := types.RoundCents(rate.Rate.Mul(decimal.NewFromInt(int64(nights.ToCharge))))

	discount, err := computeDiscount(roomSubtotal, groups, in.Overrides.DiscountPct)
	if err != nil {
		return nil, err
	}

	tax, err := computeTax(roomSubtotal, groups, in.Overrides)
	if err != nil {
		return nil, err
	}

	chargesSubtotal := groups.genericTotal()
	grandTotal := roomSubtotal.Add(chargesSubtotal).Add(tax.Total).Sub(discount.Total)

	payments := reconcilePayments(stay.Payments, grandTotal)

	inv := &Invoice{
		StayID:        stay.ID,
		ReservationID: stay.ReservationID,
		GuestName:     stay.GuestName,
		Currency:      stay.Currency,
		Period: Period{
			Checkin:           nights.Checkin,
			CandidateCheckout: nights.Candidate,
			PlannedCheckout:   nights.Planned,
		},
		Nights: Nights{
			Planned:           nights.PlannedNights,
			Calculated:        nights.CalculatedNights,
			SuggestedToCharge: nights.SuggestedToCharge,
			ToCharge:          nights.ToCharge,
			OverrideApplied:   nights.OverrideApplied,
			OverrideValue:     nights.OverrideValue,
		},
		Room: RoomSummary{
			ID:           stay.Room.ID,
			Number:       stay.Room.Number,
			RoomTypeName: stay.Room.RoomTypeName,
			NightlyRate:  rate.Rate,
			RateSource:   rate.Source,
		},
		Totals: Totals{
			RoomSubtotal:      roomSubtotal,
			ChargesSubtotal:   chargesSubtotal,
			TaxesSubtotal:     tax.Total,
			DiscountsSubtotal: discount.Total,
			GrandTotal:        grandTotal,
			PaymentsSubtotal:  payments.Total,
			Balance:           payments.Balance,
		},
		Payments:    stay.Payments,
		Warnings:    collectWarnings(rate, stay.Room.RoomTypeName, nights, groups, discount, tax, payments, grandTotal),
		Readonly:    stay.Status == StatusClosed,
		GeneratedAt: in.Now.UTC(),
	}

	if in.IncludeItems {
		inv.Lines = buildLines(stay, rate, nights, groups, discount, tax, payments, roomSubtotal)
	}

	return inv, nil
}

// collectWarnings concatenates component diagnostics in stable order:
// rate, nights, charges, discount, tax, balance. Nothing is deduplicated;
// repeated UNPRICED_CHARGE warnings are kept one per offending record.
func collectWarnings(
	rate rateResolution,
	roomTypeName string,
	nights nightsResult,
	groups chargeGroups,
	discount discountResult,
	tax taxResult,
	payments paymentsResult,
	grandTotal types.Money,
) []Warning {
	out := make([]Warning, 0, 4)
	out = append(out, rateWarnings(rate, roomTypeName)...)
	out = append(out, nightsWarnings(nights)...)
	out = append(out, chargeWarnings(groups)...)
	out = append(out, discountWarnings(discount)...)
	out = append(out, taxWarnings(tax)...)
	out = append(out, paymentWarnings(payments, grandTotal)...)
	return out
}

// buildLines renders the invoice line list in fixed order: room line,
// charge lines, tax line(s), discount line(s), payment lines.
func buildLines(
	stay *StaySnapshot,
	rate rateResolution,
	nights nightsResult,
	groups chargeGroups,
	discount discountResult,
	tax taxResult,
	payments paymentsResult,
	roomSubtotal types.Money,
) []InvoiceLine {
	lines := make([]InvoiceLine, 0, 2+len(stay.Charges)+len(payments.Applied))

	// Room line: synthesized from rate and nights, never from charge records.
	lines = append(lines, InvoiceLine{
		Type:        LineRoom,
		Description: fmt.Sprintf("Accommodation: room %s (%s), %d night(s)", stay.Room.Number, stay.Room.RoomTypeName, nights.ToCharge),
		Quantity:    decimal.NewFromInt(int64(nights.ToCharge)),
		UnitPrice:   rate.Rate,
		Amount:      roomSubtotal,
		Metadata: map[string]any{
			"rate_source":     string(rate.Source),
			"nights_override": nights.OverrideApplied,
		},
	})

	for _, c := range groups.Generic {
		lines = append(lines, InvoiceLine{
			Type:        LineCharge,
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
			Amount:      c.Total,
			Metadata:    map[string]any{"charge_id": c.ID.String(), "kind": string(c.Kind)},
		})
	}

	lines = append(lines, taxLines(groups, tax)...)
	lines = append(lines, discountLines(groups, discount)...)

	for _, p := range payments.Applied {
		lines = append(lines, InvoiceLine{
			Type:        LinePayment,
			Description: fmt.Sprintf("Payment (%s)", p.Method),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   p.Amount,
			Amount:      p.Amount.Neg(),
			Metadata:    map[string]any{"payment_id": p.ID.String(), "reference": p.Reference},
		})
	}

	return lines
}

// taxLines renders the tax portion of the invoice. Under exempt and
// custom regimes explicit fee charges are listed with a zero amount and a
// suppression note so the line sum still matches the totals.
func taxLines(groups chargeGroups, tax taxResult) []InvoiceLine {
	var lines []InvoiceLine

	switch tax.Mode {
	case TaxNormal:
		lines = append(lines, InvoiceLine{
			Type:        LineTax,
			Description: fmt.Sprintf("VAT %s%% on accommodation", StandardTaxRate.Mul(hundred).String()),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   tax.StandardAmount,
			Amount:      tax.StandardAmount,
			Metadata:    map[string]any{"mode": string(TaxNormal), "rate": StandardTaxRate.String()},
		})
	case TaxExempt:
		lines = append(lines, InvoiceLine{
			Type:        LineTax,
			Description: "Tax exempt",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   types.Zero(),
			Amount:      types.Zero(),
			Metadata:    map[string]any{"mode": string(TaxExempt)},
		})
	case TaxCustom:
		lines = append(lines, InvoiceLine{
			Type:        LineTax,
			Description: "Tax (custom amount)",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   tax.Total,
			Amount:      tax.Total,
			Metadata:    map[string]any{"mode": string(TaxCustom)},
		})
	}

	for _, c := range groups.Fees {
		line := InvoiceLine{
			Type:        LineTax,
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
			Amount:      c.Total,
			Metadata:    map[string]any{"charge_id": c.ID.String(), "kind": string(c.Kind)},
		}
		if tax.FeesSuppressed {
			line.Amount = types.Zero()
			line.Metadata["suppressed"] = true
			line.Metadata["original_amount"] = c.Total.String()
		}
		lines = append(lines, line)
	}

	return lines
}

// discountLines renders the discount portion. When the percentage
// override is active, explicit discount records are listed with a zero
// amount and a note; they never enter the totals alongside the override.
func discountLines(groups chargeGroups, discount discountResult) []InvoiceLine {
	var lines []InvoiceLine

	for _, c := range groups.Discounts {
		line := InvoiceLine{
			Type:        LineDiscount,
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
			Amount:      c.Total.Abs().Neg(),
			Metadata:    map[string]any{"charge_id": c.ID.String(), "kind": string(c.Kind)},
		}
		if discount.OverrideApplied {
			line.Amount = types.Zero()
			line.Metadata["suppressed"] = true
			line.Metadata["original_amount"] = c.Total.Abs().String()
		}
		lines = append(lines, line)
	}

	if discount.OverrideApplied {
		lines = append(lines, InvoiceLine{
			Type:        LineDiscount,
			Description: fmt.Sprintf("Discount %s%%", discount.Pct.String()),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   discount.OverrideAmount,
			Amount:      discount.OverrideAmount.Neg(),
			Metadata:    map[string]any{"source": "override", "pct": discount.Pct.String()},
		})
	}

	return lines
}
