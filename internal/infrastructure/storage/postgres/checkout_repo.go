package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"posada/internal/core/apperror"
	"posada/internal/core/id"
	"posada/internal/domain/billing/invoice"
	"posada/internal/domain/stays"
)

const invoicesTable = "invoices"

var _ stays.CheckoutRepository = (*CheckoutRepo)(nil)

// CheckoutRepo persists checkout outcomes: the immutable invoice record
// and the stay/room state flip. Runs inside the service's transaction.
type CheckoutRepo struct {
	columns []string
}

// NewCheckoutRepo creates a new checkout repository.
func NewCheckoutRepo() *CheckoutRepo {
	return &CheckoutRepo{
		columns: ExtractDBColumns[stays.InvoiceRecord](),
	}
}

func (r *CheckoutRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SaveInvoice inserts the invoice record. Records are append-only: there
// is no update path.
func (r *CheckoutRepo) SaveInvoice(ctx context.Context, rec *stays.InvoiceRecord) error {
	data := StructToMap(rec)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in invoice record")
	}

	filtered := make(map[string]any, len(r.columns))
	for _, col := range r.columns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(invoicesTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetInvoiceByStay returns the stored invoice record for a stay.
func (r *CheckoutRepo) GetInvoiceByStay(ctx context.Context, stayID id.ID) (*stays.InvoiceRecord, error) {
	sql, args, err := r.builder().
		Select(r.columns...).
		From(invoicesTable).
		Where(squirrel.Eq{"stay_id": stayID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rec stays.InvoiceRecord
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("invoice", stayID)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &rec, nil
}

// CloseStay flips the stay to closed, stamps the actual checkout and
// marks the vacated room dirty for housekeeping.
func (r *CheckoutRepo) CloseStay(ctx context.Context, stayID id.ID, closedAt time.Time) error {
	querier := MustGetTxManager(ctx).GetQuerier(ctx)

	sql, args, err := r.builder().
		Update(staysTable).
		Set("status", string(invoice.StatusClosed)).
		Set("actual_checkout", closedAt).
		Set("updated_at", closedAt).
		Where(squirrel.Eq{"id": stayID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("close stay: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stay", stayID)
	}

	roomSQL := `
		UPDATE rooms SET housekeeping_status = 'dirty'
		WHERE id = (SELECT room_id FROM stays WHERE id = $1)
	`
	if _, err := querier.Exec(ctx, roomSQL, stayID); err != nil {
		return fmt.Errorf("flag room for housekeeping: %w", err)
	}
	return nil
}
