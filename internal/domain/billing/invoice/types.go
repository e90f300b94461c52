// Package invoice implements the stay checkout calculation engine.
//
// The engine is a pure function of its inputs: it performs no I/O, keeps
// no state between calls and never caches. Callers load a StaySnapshot,
// attach optional overrides and a clock value, and get back a fully
// itemized, balanced invoice plus diagnostic warnings. Re-running with
// identical inputs yields identical output.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"posada/internal/core/id"
	"posada/internal/core/types"
)

// StayStatus is the operational state of a stay.
type StayStatus string

const (
	StatusPendingCheckin  StayStatus = "pending_checkin"
	StatusOccupied        StayStatus = "occupied"
	StatusPendingCheckout StayStatus = "pending_checkout"
	StatusClosed          StayStatus = "closed"
)

// ChargeKind classifies an ad-hoc charge record.
type ChargeKind string

const (
	ChargeRoomNight ChargeKind = "room_night"
	ChargeProduct   ChargeKind = "product"
	ChargeService   ChargeKind = "service"
	ChargeFee       ChargeKind = "fee"
	ChargeDiscount  ChargeKind = "discount"
)

// RateSource records which input determined the nightly rate.
type RateSource string

const (
	RateFromOverride RateSource = "override"
	RateFromStay     RateSource = "stay"
	RateFromRoomType RateSource = "room_type"
	RateMissing      RateSource = "missing"
)

// TaxMode selects the tax regime.
type TaxMode string

const (
	TaxNormal TaxMode = "normal"
	TaxExempt TaxMode = "exempt"
	TaxCustom TaxMode = "custom"
)

// Valid reports whether the mode is one of the known regimes.
func (m TaxMode) Valid() bool {
	switch m {
	case TaxNormal, TaxExempt, TaxCustom:
		return true
	}
	return false
}

// LineType identifies what an invoice line represents.
type LineType string

const (
	LineRoom     LineType = "room"
	LineCharge   LineType = "charge"
	LineTax      LineType = "tax"
	LineDiscount LineType = "discount"
	LinePayment  LineType = "payment"
)

// Severity grades a diagnostic warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning codes. Error severity flags data quality issues only; the
// computation itself never aborts on a warning.
const (
	CodeMissingRate         = "MISSING_RATE"
	CodeRateOverride        = "RATE_OVERRIDE"
	CodeNightsOverride      = "NIGHTS_OVERRIDE"
	CodeNightsDiffer        = "NIGHTS_DIFFER"
	CodeSameDayCheckout     = "SAME_DAY_CHECKOUT"
	CodeUnpricedCharge      = "UNPRICED_CHARGE"
	CodeDiscountOverride    = "DISCOUNT_OVERRIDE"
	CodeTaxOverride         = "TAX_OVERRIDE"
	CodeBalanceDue          = "BALANCE_DUE"
	CodeOverpayment         = "OVERPAYMENT"
	CodePaymentsExceedTotal = "PAYMENTS_EXCEED_TOTAL"
)

// Warning is a non-fatal diagnostic attached to a successful computation.
type Warning struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Room is the room assignment embedded in a stay snapshot.
type Room struct {
	ID           id.ID        `json:"id"`
	Number       string       `json:"number"`
	RoomTypeName string       `json:"room_type_name"`
	BaseRate     *types.Money `json:"base_rate,omitempty"`
}

// ChargeRecord is one ad-hoc charge posted to a stay.
// The engine trusts the stored total; it does not re-derive it from
// quantity and unit price, it only flags zero/negative anomalies.
type ChargeRecord struct {
	ID          id.ID           `json:"id"`
	Kind        ChargeKind      `json:"kind"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   types.Money     `json:"unit_price"`
	Total       types.Money     `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentRecord is one payment posted to a stay.
// Reversed payments are excluded from totals but retained for audit display.
type PaymentRecord struct {
	ID        id.ID       `json:"id"`
	Amount    types.Money `json:"amount"`
	Method    string      `json:"method"`
	Reference string      `json:"reference,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Reversed  bool        `json:"reversed"`
}

// StaySnapshot is the immutable input to the engine: the stay with its
// room, room type, charges and payments eagerly joined, so the pipeline
// never goes back to storage mid-computation.
type StaySnapshot struct {
	ID             id.ID           `json:"id"`
	ReservationID  id.ID           `json:"reservation_id"`
	GuestName      string          `json:"guest_name"`
	Status         StayStatus      `json:"status"`
	Currency       string          `json:"currency"`
	CheckinAt      time.Time       `json:"checkin_at"`
	PlannedCheckout time.Time      `json:"planned_checkout"`
	ActualCheckout *time.Time      `json:"actual_checkout,omitempty"`
	NegotiatedRate *types.Money    `json:"negotiated_rate,omitempty"`
	Room           *Room           `json:"room"`
	Charges        []ChargeRecord  `json:"charges"`
	Payments       []PaymentRecord `json:"payments"`
}

// Overrides carries caller-supplied values superseding computed defaults.
// Every field distinguishes "not supplied" (nil) from "supplied as zero";
// sentinel zeros are never used.
type Overrides struct {
	Nights         *int
	Rate           *types.Money
	DiscountPct    *types.Money
	TaxMode        *TaxMode
	TaxCustomValue *types.Money
}

// ComputeInput is everything one engine invocation depends on.
type ComputeInput struct {
	Stay *StaySnapshot

	// CandidateCheckout is the checkout date the invoice simulates.
	// Defaults to the actual checkout if present, else today, else the
	// planned checkout.
	CandidateCheckout *time.Time

	Overrides Overrides

	// IncludeItems controls whether breakdown lines are produced.
	IncludeItems bool

	// Now is the clock injected by the caller. The engine never reads
	// the wall clock itself, so identical inputs give identical output.
	Now time.Time
}

// Period reports the dates the invoice covers.
type Period struct {
	Checkin           time.Time `json:"checkin"`
	CandidateCheckout time.Time `json:"candidate_checkout"`
	PlannedCheckout   time.Time `json:"planned_checkout"`
}

// Nights reports every intermediate of the nights derivation.
type Nights struct {
	Planned           int  `json:"planned"`
	Calculated        int  `json:"calculated"`
	SuggestedToCharge int  `json:"suggested_to_charge"`
	ToCharge          int  `json:"to_charge"`
	OverrideApplied   bool `json:"override_applied"`
	OverrideValue     *int `json:"override_value,omitempty"`
}

// RoomSummary reports the billed room and the resolved rate.
type RoomSummary struct {
	ID           id.ID       `json:"id"`
	Number       string      `json:"number"`
	RoomTypeName string      `json:"room_type_name"`
	NightlyRate  types.Money `json:"nightly_rate"`
	RateSource   RateSource  `json:"rate_source"`
}

// InvoiceLine is one contributing item of the invoice. Discount and
// payment lines carry negative amounts. Metadata ties the line back to
// its source record or override for audit.
type InvoiceLine struct {
	Type        LineType        `json:"type"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   types.Money     `json:"unit_price"`
	Amount      types.Money     `json:"amount"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// Totals aggregates the invoice. Invariant:
// GrandTotal == RoomSubtotal + ChargesSubtotal + TaxesSubtotal - DiscountsSubtotal
// exactly, at cent precision.
type Totals struct {
	RoomSubtotal      types.Money `json:"room_subtotal"`
	ChargesSubtotal   types.Money `json:"charges_subtotal"`
	TaxesSubtotal     types.Money `json:"taxes_subtotal"`
	DiscountsSubtotal types.Money `json:"discounts_subtotal"`
	GrandTotal        types.Money `json:"grand_total"`
	PaymentsSubtotal  types.Money `json:"payments_subtotal"`
	Balance           types.Money `json:"balance"`
}

// Invoice is the engine output: a serializable snapshot of one computation.
type Invoice struct {
	StayID        id.ID           `json:"stay_id"`
	ReservationID id.ID           `json:"reservation_id"`
	GuestName     string          `json:"guest_name,omitempty"`
	Currency      string          `json:"currency"`
	Period        Period          `json:"period"`
	Nights        Nights          `json:"nights"`
	Room          RoomSummary     `json:"room"`
	Lines         []InvoiceLine   `json:"breakdown_lines,omitempty"`
	Totals        Totals          `json:"totals"`
	Payments      []PaymentRecord `json:"payments"`
	Warnings      []Warning       `json:"warnings"`

	// Readonly signals that the stay is closed and persistence should be
	// blocked elsewhere. Recomputation itself is never blocked.
	Readonly bool `json:"readonly"`

	GeneratedAt time.Time `json:"generated_at"`
}
