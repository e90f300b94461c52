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
	"posada/internal/core/types"
	"posada/internal/domain/billing/invoice"
	"posada/internal/domain/stays"
)

const (
	staysTable        = "stays"
	roomsTable        = "rooms"
	roomTypesTable    = "room_types"
	stayChargesTable  = "stay_charges"
	stayPaymentsTable = "stay_payments"
)

var _ stays.SnapshotRepository = (*StayRepo)(nil)

// StayRepo loads stay snapshots for the invoice engine.
// In Database-per-Tenant architecture, TxManager is obtained from context.
type StayRepo struct{}

// NewStayRepo creates a new stay repository.
func NewStayRepo() *StayRepo {
	return &StayRepo{}
}

func (r *StayRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// stayRow is the stay joined with its room and room type. Room columns
// are nullable: a stay may have no room assigned yet.
type stayRow struct {
	ID              id.ID        `db:"id"`
	ReservationID   id.ID        `db:"reservation_id"`
	GuestName       string       `db:"guest_name"`
	Status          string       `db:"status"`
	Currency        string       `db:"currency"`
	CheckinAt       time.Time    `db:"checkin_at"`
	PlannedCheckout time.Time    `db:"planned_checkout"`
	ActualCheckout  *time.Time   `db:"actual_checkout"`
	NegotiatedRate  *types.Money `db:"negotiated_rate"`
	RoomID          *id.ID       `db:"room_id"`
	RoomNumber      *string      `db:"room_number"`
	RoomTypeName    *string      `db:"room_type_name"`
	BaseRate        *types.Money `db:"base_rate"`
}

type chargeRow struct {
	ID          id.ID       `db:"id"`
	Kind        string      `db:"kind"`
	Description string      `db:"description"`
	Quantity    types.Money `db:"quantity"`
	UnitPrice   types.Money `db:"unit_price"`
	Total       types.Money `db:"total"`
	CreatedAt   time.Time   `db:"created_at"`
}

type paymentRow struct {
	ID        id.ID       `db:"id"`
	Amount    types.Money `db:"amount"`
	Method    string      `db:"method"`
	Reference *string     `db:"reference"`
	PaidAt    time.Time   `db:"paid_at"`
	Reversed  bool        `db:"reversed"`
}

// GetSnapshot loads the stay with room, room type, charges and payments
// inside one read-only transaction so the engine sees a consistent view.
func (r *StayRepo) GetSnapshot(ctx context.Context, stayID id.ID) (*invoice.StaySnapshot, error) {
	txm := MustGetTxManager(ctx)

	var snap *invoice.StaySnapshot
	err := txm.ReadOnly(ctx, func(ctx context.Context) error {
		querier := txm.GetQuerier(ctx)

		row, err := r.getStayRow(ctx, querier, stayID)
		if err != nil {
			return err
		}

		charges, err := r.getCharges(ctx, querier, stayID)
		if err != nil {
			return err
		}

		payments, err := r.getPayments(ctx, querier, stayID)
		if err != nil {
			return err
		}

		snap = buildSnapshot(row, charges, payments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *StayRepo) getStayRow(ctx context.Context, querier Querier, stayID id.ID) (*stayRow, error) {
	q := r.builder().
		Select(
			"s.id", "s.reservation_id", "s.guest_name", "s.status", "s.currency",
			"s.checkin_at", "s.planned_checkout", "s.actual_checkout", "s.negotiated_rate",
			"r.id AS room_id", "r.number AS room_number",
			"rt.name AS room_type_name", "rt.base_rate",
		).
		From(staysTable + " s").
		LeftJoin(roomsTable + " r ON r.id = s.room_id").
		LeftJoin(roomTypesTable + " rt ON rt.id = r.room_type_id").
		Where(squirrel.Eq{"s.id": stayID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stay query: %w", err)
	}

	var row stayRow
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("stay", stayID)
		}
		return nil, fmt.Errorf("get stay: %w", err)
	}
	return &row, nil
}

func (r *StayRepo) getCharges(ctx context.Context, querier Querier, stayID id.ID) ([]chargeRow, error) {
	q := r.builder().
		Select("id", "kind", "description", "quantity", "unit_price", "total", "created_at").
		From(stayChargesTable).
		Where(squirrel.Eq{"stay_id": stayID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build charges query: %w", err)
	}

	var rows []chargeRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get charges: %w", err)
	}
	return rows, nil
}

func (r *StayRepo) getPayments(ctx context.Context, querier Querier, stayID id.ID) ([]paymentRow, error) {
	q := r.builder().
		Select("id", "amount", "method", "reference", "paid_at", "reversed").
		From(stayPaymentsTable).
		Where(squirrel.Eq{"stay_id": stayID}).
		OrderBy("paid_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payments query: %w", err)
	}

	var rows []paymentRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}
	return rows, nil
}

func buildSnapshot(row *stayRow, charges []chargeRow, payments []paymentRow) *invoice.StaySnapshot {
	snap := &invoice.StaySnapshot{
		ID:              row.ID,
		ReservationID:   row.ReservationID,
		GuestName:       row.GuestName,
		Status:          invoice.StayStatus(row.Status),
		Currency:        row.Currency,
		CheckinAt:       row.CheckinAt,
		PlannedCheckout: row.PlannedCheckout,
		ActualCheckout:  row.ActualCheckout,
		NegotiatedRate:  row.NegotiatedRate,
	}

	if row.RoomID != nil {
		room := &invoice.Room{
			ID:       *row.RoomID,
			BaseRate: row.BaseRate,
		}
		if row.RoomNumber != nil {
			room.Number = *row.RoomNumber
		}
		if row.RoomTypeName != nil {
			room.RoomTypeName = *row.RoomTypeName
		}
		snap.Room = room
	}

	snap.Charges = make([]invoice.ChargeRecord, 0, len(charges))
	for _, c := range charges {
		snap.Charges = append(snap.Charges, invoice.ChargeRecord{
			ID:          c.ID,
			Kind:        invoice.ChargeKind(c.Kind),
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitPrice:   c.UnitPrice,
			Total:       c.Total,
			CreatedAt:   c.CreatedAt,
		})
	}

	snap.Payments = make([]invoice.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		rec := invoice.PaymentRecord{
			ID:        p.ID,
			Amount:    p.Amount,
			Method:    p.Method,
			Timestamp: p.PaidAt,
			Reversed:  p.Reversed,
		}
		if p.Reference != nil {
			rec.Reference = *p.Reference
		}
		snap.Payments = append(snap.Payments, rec)
	}

	return snap
}
