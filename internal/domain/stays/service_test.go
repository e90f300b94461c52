package stays

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"posada/internal/core/apperror"
	"posada/internal/core/id"
	"posada/internal/core/types"
	"posada/internal/domain/audit"
	"posada/internal/domain/billing/invoice"
	"posada/pkg/numerator"
)

type stubSnapshots struct {
	stay *invoice.StaySnapshot
	err  error
}

func (s *stubSnapshots) GetSnapshot(ctx context.Context, stayID id.ID) (*invoice.StaySnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stay, nil
}

type stubCheckouts struct {
	saved    *InvoiceRecord
	closedAt *time.Time
	stored   *InvoiceRecord
}

func (s *stubCheckouts) SaveInvoice(ctx context.Context, rec *InvoiceRecord) error {
	s.saved = rec
	return nil
}

func (s *stubCheckouts) GetInvoiceByStay(ctx context.Context, stayID id.ID) (*InvoiceRecord, error) {
	if s.stored == nil {
		return nil, apperror.NewNotFound("invoice", stayID)
	}
	return s.stored, nil
}

func (s *stubCheckouts) CloseStay(ctx context.Context, stayID id.ID, closedAt time.Time) error {
	s.closedAt = &closedAt
	return nil
}

type stubRecorder struct {
	events []audit.Event
}

func (s *stubRecorder) Record(ctx context.Context, event audit.Event) error {
	s.events = append(s.events, event)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqRow struct{ val int64 }

func (r *seqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type seqQuerier struct{ current int64 }

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.current++
	return &seqRow{val: q.current}
}

func moneyPtr(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

// Stay checked in 2025-05-10, planned checkout 2025-05-12, rate 30000.
func testStay(status invoice.StayStatus) *invoice.StaySnapshot {
	return &invoice.StaySnapshot{
		ID:              id.New(),
		ReservationID:   id.New(),
		GuestName:       "Marta Suarez",
		Status:          status,
		Currency:        "ARS",
		CheckinAt:       time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC),
		PlannedCheckout: time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
		NegotiatedRate:  moneyPtr("30000"),
		Room: &invoice.Room{
			ID:           id.New(),
			Number:       "101",
			RoomTypeName: "Standard",
		},
	}
}

func newTestService(stay *invoice.StaySnapshot) (*Service, *stubCheckouts, *stubRecorder) {
	checkouts := &stubCheckouts{}
	recorder := &stubRecorder{}
	svc := NewService(
		&stubSnapshots{stay: stay},
		checkouts,
		numerator.New(&seqQuerier{}),
		recorder,
		passthroughTx{},
	)
	svc.clock = func() time.Time { return time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC) }
	return svc, checkouts, recorder
}

func TestInvoicePreview_UsesInjectedClock(t *testing.T) {
	svc, _, _ := newTestService(testStay(invoice.StatusOccupied))

	inv, err := svc.InvoicePreview(context.Background(), id.New(), PreviewOptions{IncludeItems: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !inv.GeneratedAt.Equal(time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("generated_at = %s, want the service clock", inv.GeneratedAt)
	}
	// Candidate defaults to "today" from the clock: two full nights.
	if inv.Nights.ToCharge != 2 {
		t.Errorf("nights to charge = %d, want 2", inv.Nights.ToCharge)
	}
}

func TestCheckout_RequiresJustification(t *testing.T) {
	svc, _, _ := newTestService(testStay(invoice.StatusOccupied))

	_, err := svc.Checkout(context.Background(), id.New(), CheckoutRequest{
		Justification:      "   ",
		AllowCloseWithDebt: true,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCheckout_RejectsWrongStatus(t *testing.T) {
	svc, _, _ := newTestService(testStay(invoice.StatusPendingCheckin))

	_, err := svc.Checkout(context.Background(), id.New(), CheckoutRequest{
		Justification:      "walk-in cancelled",
		AllowCloseWithDebt: true,
	})

	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeStayNotCheckoutable {
		t.Fatalf("expected STAY_NOT_CHECKOUTABLE, got %v", err)
	}
}

func TestCheckout_BalanceGuard(t *testing.T) {
	// Unpaid stay: balance is positive.
	svc, checkouts, _ := newTestService(testStay(invoice.StatusOccupied))

	_, err := svc.Checkout(context.Background(), id.New(), CheckoutRequest{Justification: "guest leaving"})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeBalanceOutstanding {
		t.Fatalf("expected BALANCE_OUTSTANDING, got %v", err)
	}
	if checkouts.saved != nil {
		t.Error("nothing must be persisted on a rejected checkout")
	}

	res, err := svc.Checkout(context.Background(), id.New(), CheckoutRequest{
		Justification:      "debt approved by manager",
		AllowCloseWithDebt: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Invoice.Totals.Balance.IsPositive() {
		t.Error("balance must remain positive on a debt-approved close")
	}
}

func TestCheckout_PersistsAndAudits(t *testing.T) {
	stay := testStay(invoice.StatusPendingCheckout)
	stay.Payments = []invoice.PaymentRecord{{
		ID:     id.New(),
		Amount: types.MustMoney("100000"),
		Method: "cash",
	}}

	svc, checkouts, recorder := newTestService(stay)

	res, err := svc.Checkout(context.Background(), stay.ID, CheckoutRequest{
		PreviewOptions: PreviewOptions{Overrides: invoice.Overrides{DiscountPct: moneyPtr("10")}},
		Justification:  "loyalty discount",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.InvoiceNumber != "INV-2025-00001" {
		t.Errorf("invoice number = %s, want INV-2025-00001", res.InvoiceNumber)
	}
	if res.AlreadyClosed {
		t.Error("first checkout must not report a replay")
	}

	if checkouts.saved == nil {
		t.Fatal("invoice record must be persisted")
	}
	if checkouts.saved.Number != res.InvoiceNumber {
		t.Errorf("stored number = %s, want %s", checkouts.saved.Number, res.InvoiceNumber)
	}
	if checkouts.closedAt == nil {
		t.Fatal("stay must be closed")
	}

	var stored invoice.Invoice
	if err := json.Unmarshal(checkouts.saved.Payload, &stored); err != nil {
		t.Fatalf("stored payload must unmarshal: %v", err)
	}
	if len(stored.Lines) == 0 {
		t.Error("persisted invoice must carry the full breakdown")
	}

	if len(recorder.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(recorder.events))
	}
	ev := recorder.events[0]
	if ev.Action != audit.ActionCheckout || ev.EntityID != stay.ID {
		t.Errorf("audit event = %+v", ev)
	}
	if ev.Changes["justification"] != "loyalty discount" {
		t.Errorf("audit must carry the justification, got %v", ev.Changes["justification"])
	}
}

func TestCheckout_IdempotentOnClosedStay(t *testing.T) {
	stay := testStay(invoice.StatusClosed)
	svc, checkouts, recorder := newTestService(stay)

	payload, _ := json.Marshal(&invoice.Invoice{
		StayID:   stay.ID,
		Currency: "ARS",
		Totals:   invoice.Totals{GrandTotal: types.MustMoney("60000")},
	})
	checkouts.stored = &InvoiceRecord{
		StayID:    stay.ID,
		Number:    "INV-2025-00007",
		Payload:   payload,
		CreatedAt: time.Date(2025, 5, 11, 18, 0, 0, 0, time.UTC),
	}

	res, err := svc.Checkout(context.Background(), stay.ID, CheckoutRequest{Justification: "retry after timeout"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.AlreadyClosed {
		t.Error("replay must be flagged")
	}
	if res.InvoiceNumber != "INV-2025-00007" {
		t.Errorf("number = %s, want the stored INV-2025-00007", res.InvoiceNumber)
	}
	if res.Invoice.Totals.GrandTotal.String() != "60000" {
		t.Errorf("stored totals must be returned unchanged, got %s", res.Invoice.Totals.GrandTotal.String())
	}
	if checkouts.saved != nil {
		t.Error("replay must not persist a second record")
	}
	if len(recorder.events) != 0 {
		t.Error("replay must not write a second audit event")
	}
}
