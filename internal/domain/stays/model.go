// Package stays provides business operations over stay records: invoice
// preview and checkout commit. All money math is delegated to the
// billing/invoice engine; this package adds status rules and persistence.
package stays

import (
	"encoding/json"
	"time"

	"posada/internal/core/id"
	"posada/internal/core/types"
	"posada/internal/domain/billing/invoice"
)

// PreviewOptions carries the caller-supplied parameters of an invoice
// preview. All fields are optional; nil means "use the computed default".
type PreviewOptions struct {
	CandidateCheckout *time.Time
	Overrides         invoice.Overrides
	IncludeItems      bool
}

// CheckoutRequest commits a checkout: the same knobs as a preview plus
// the authorization fields.
type CheckoutRequest struct {
	PreviewOptions

	// Justification is mandatory; it goes verbatim into the audit trail.
	Justification string

	// AllowCloseWithDebt permits closing a stay with a positive balance.
	AllowCloseWithDebt bool
}

// InvoiceRecord is the immutable persisted outcome of a checkout.
type InvoiceRecord struct {
	ID        id.ID           `db:"id"`
	StayID    id.ID           `db:"stay_id"`
	Number    string          `db:"number"`
	Currency  string          `db:"currency"`
	Total     types.Money     `db:"total"`
	Balance   types.Money     `db:"balance"`
	Payload   json.RawMessage `db:"payload"`
	CreatedBy string          `db:"created_by"`
	CreatedAt time.Time       `db:"created_at"`
}

// CheckoutResult is what a checkout commit returns.
type CheckoutResult struct {
	Invoice       *invoice.Invoice `json:"invoice"`
	InvoiceNumber string           `json:"invoice_number"`
	ClosedAt      time.Time        `json:"closed_at"`

	// AlreadyClosed signals an idempotent replay: the stay was closed
	// before this call and the stored record is returned unchanged.
	AlreadyClosed bool `json:"already_closed"`
}
