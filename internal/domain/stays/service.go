package stays

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"posada/internal/core/apperror"
	appctx "posada/internal/core/context"
	"posada/internal/core/id"
	"posada/internal/core/tenant"
	"posada/internal/core/tx"
	"posada/internal/domain/audit"
	"posada/internal/domain/billing/invoice"
	"posada/pkg/logger"
	"posada/pkg/metrics"
	"posada/pkg/numerator"
)

// Service provides invoice preview and checkout commit over stays.
// In Database-per-Tenant architecture, TxManager is obtained from context.
type Service struct {
	snapshots SnapshotRepository
	checkouts CheckoutRepository
	numerator *numerator.Service
	audit     audit.Recorder
	txManager tx.Manager // Optional. If nil, obtained from context (DB-per-tenant).

	// clock is swappable in tests; defaults to time.Now.
	clock func() time.Time
}

// NewService creates a new stays service.
func NewService(
	snapshots SnapshotRepository,
	checkouts CheckoutRepository,
	num *numerator.Service,
	auditRec audit.Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		snapshots: snapshots,
		checkouts: checkouts,
		numerator: num,
		audit:     auditRec,
		txManager: txManager,
		clock:     time.Now,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// GetSnapshot returns the eagerly-joined stay snapshot.
func (s *Service) GetSnapshot(ctx context.Context, stayID id.ID) (*invoice.StaySnapshot, error) {
	return s.snapshots.GetSnapshot(ctx, stayID)
}

// InvoicePreview computes an invoice for the stay without persisting
// anything. Safe to call repeatedly while the user edits overrides.
func (s *Service) InvoicePreview(ctx context.Context, stayID id.ID, opts PreviewOptions) (*invoice.Invoice, error) {
	stay, err := s.snapshots.GetSnapshot(ctx, stayID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	inv, err := invoice.Compute(invoice.ComputeInput{
		Stay:              stay,
		CandidateCheckout: opts.CandidateCheckout,
		Overrides:         opts.Overrides,
		IncludeItems:      opts.IncludeItems,
		Now:               s.clock(),
	})
	metrics.ObserveCompute(start, err)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "invoice preview computed",
		"stay_id", stayID,
		"grand_total", inv.Totals.GrandTotal,
		"warnings", len(inv.Warnings))

	return inv, nil
}

// Checkout re-runs the same engine a preview uses and persists its
// output: an immutable invoice record plus the closed stay. Replaying a
// checkout against an already-closed stay returns the stored record.
func (s *Service) Checkout(ctx context.Context, stayID id.ID, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(req.Justification) == "" {
		return nil, apperror.NewValidation("justification is required").
			WithDetail("field", "justification")
	}

	stay, err := s.snapshots.GetSnapshot(ctx, stayID)
	if err != nil {
		return nil, err
	}

	if stay.Status == invoice.StatusClosed {
		return s.replayClosed(ctx, stayID)
	}
	if stay.Status != invoice.StatusOccupied && stay.Status != invoice.StatusPendingCheckout {
		return nil, apperror.NewStayNotCheckoutable(stayID, string(stay.Status))
	}

	now := s.clock()

	start := time.Now()
	inv, err := invoice.Compute(invoice.ComputeInput{
		Stay:              stay,
		CandidateCheckout: req.CandidateCheckout,
		Overrides:         req.Overrides,
		IncludeItems:      true, // the persisted record always carries the full breakdown
		Now:               now,
	})
	metrics.ObserveCompute(start, err)
	if err != nil {
		return nil, err
	}

	if inv.Totals.Balance.IsPositive() && !req.AllowCloseWithDebt {
		return nil, apperror.NewBalanceOutstanding(stayID, inv.Totals.Balance.StringFixed(2))
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("INV"), now)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	payload, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice: %w", err)
	}

	rec := &InvoiceRecord{
		ID:        id.New(),
		StayID:    stayID,
		Number:    number,
		Currency:  inv.Currency,
		Total:     inv.Totals.GrandTotal,
		Balance:   inv.Totals.Balance,
		Payload:   payload,
		CreatedBy: appctx.GetUserID(ctx),
		CreatedAt: now,
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkouts.SaveInvoice(ctx, rec); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		if err := s.checkouts.CloseStay(ctx, stayID, now); err != nil {
			return fmt.Errorf("close stay: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCheckoutAudit(ctx, stayID, rec, req)
	metrics.CheckoutsCommitted.Inc()

	logger.Info(ctx, "stay checked out",
		"stay_id", stayID,
		"invoice_number", number,
		"grand_total", inv.Totals.GrandTotal,
		"balance", inv.Totals.Balance,
		"with_debt", req.AllowCloseWithDebt)

	return &CheckoutResult{Invoice: inv, InvoiceNumber: number, ClosedAt: now}, nil
}

// replayClosed serves the idempotent path: the stored invoice, untouched.
func (s *Service) replayClosed(ctx context.Context, stayID id.ID) (*CheckoutResult, error) {
	rec, err := s.checkouts.GetInvoiceByStay(ctx, stayID)
	if err != nil {
		return nil, err
	}

	var inv invoice.Invoice
	if err := json.Unmarshal(rec.Payload, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal stored invoice %s: %w", rec.Number, err)
	}

	logger.Info(ctx, "checkout replayed on closed stay",
		"stay_id", stayID,
		"invoice_number", rec.Number)

	return &CheckoutResult{
		Invoice:       &inv,
		InvoiceNumber: rec.Number,
		ClosedAt:      rec.CreatedAt,
		AlreadyClosed: true,
	}, nil
}

// recordCheckoutAudit writes the audit event. Audit failures are logged,
// never propagated: the checkout already committed.
func (s *Service) recordCheckoutAudit(ctx context.Context, stayID id.ID, rec *InvoiceRecord, req CheckoutRequest) {
	if s.audit == nil {
		return
	}

	changes := map[string]any{
		"invoice_number":        rec.Number,
		"grand_total":           rec.Total.String(),
		"balance":               rec.Balance.String(),
		"justification":         req.Justification,
		"allow_close_with_debt": req.AllowCloseWithDebt,
	}
	if ov := overridesPayload(req.PreviewOptions); len(ov) > 0 {
		changes["overrides"] = ov
	}

	var email string
	if u := appctx.GetUser(ctx); u != nil {
		email = u.Email
	}

	err := s.audit.Record(ctx, audit.Event{
		EntityType: "stay",
		EntityID:   stayID,
		Action:     audit.ActionCheckout,
		UserID:     appctx.GetUserID(ctx),
		UserEmail:  email,
		Changes:    changes,
		CreatedAt:  rec.CreatedAt,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed",
			"stay_id", stayID,
			"error", err)
	}
}

func overridesPayload(opts PreviewOptions) map[string]any {
	out := map[string]any{}
	if opts.CandidateCheckout != nil {
		out["checkout_date"] = opts.CandidateCheckout.Format(time.DateOnly)
	}
	if opts.Overrides.Nights != nil {
		out["nights"] = *opts.Overrides.Nights
	}
	if opts.Overrides.Rate != nil {
		out["rate"] = opts.Overrides.Rate.String()
	}
	if opts.Overrides.DiscountPct != nil {
		out["discount_pct"] = opts.Overrides.DiscountPct.String()
	}
	if opts.Overrides.TaxMode != nil {
		out["tax_mode"] = string(*opts.Overrides.TaxMode)
	}
	if opts.Overrides.TaxCustomValue != nil {
		out["tax_value"] = opts.Overrides.TaxCustomValue.String()
	}
	return out
}
