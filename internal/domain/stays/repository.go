package stays

import (
	"context"
	"time"

	"posada/internal/core/id"
	"posada/internal/domain/billing/invoice"
)

// SnapshotRepository loads the engine input in one round trip: stay,
// room, room type, charges and payments eagerly joined so the engine
// never goes back to storage mid-computation.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, stayID id.ID) (*invoice.StaySnapshot, error)
}

// CheckoutRepository persists checkout outcomes.
type CheckoutRepository interface {
	// SaveInvoice stores the immutable invoice record.
	SaveInvoice(ctx context.Context, rec *InvoiceRecord) error

	// GetInvoiceByStay returns the stored invoice record for a closed
	// stay, or a not-found error.
	GetInvoiceByStay(ctx context.Context, stayID id.ID) (*InvoiceRecord, error)

	// CloseStay marks the stay closed, records the actual checkout time
	// and flags the room for housekeeping.
	CloseStay(ctx context.Context, stayID id.ID, closedAt time.Time) error
}
