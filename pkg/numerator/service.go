// Package numerator provides invoice auto-numbering.
// In Database-per-Tenant architecture, the querier is obtained from context.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"posada/internal/core/tenant"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "INV")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{Prefix: prefix, PadWidth: 5}
}

// Service generates gapless sequential numbers via UPDATE ... RETURNING.
// Every call hits the database; invoices must never skip a number, so no
// in-memory range caching is done here.
type Service struct {
	// staticQuerier is used for single-tenant mode and tests.
	staticQuerier Querier
	useContext    bool
}

// New creates a numerator with a static querier.
// Use for single-tenant or testing scenarios.
func New(querier Querier) *Service {
	return &Service{staticQuerier: querier}
}

// NewFromContext creates a numerator that takes the querier from context.
// Use for Database-per-Tenant architecture.
func NewFromContext() *Service {
	return &Service{useContext: true}
}

func (s *Service) getQuerier(ctx context.Context) Querier {
	if s.useContext {
		// Number allocation runs outside business transactions on purpose:
		// a rolled-back checkout burns the number rather than holding a
		// row lock on the sequence table.
		return tenant.MustGetPool(ctx)
	}
	return s.staticQuerier
}

// GetNextNumber generates the next number for the period's year.
// Pattern: PREFIX-YEAR-XXXXX (e.g. INV-2025-00042). Sequences reset per year.
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	querier := s.getQuerier(ctx)
	var num int64
	err := querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (sequence_type, year, current_val)
        VALUES ($1, $2, 1)
        ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, cfg.Prefix, period.Year()).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number: %w", err)
	}

	return s.formatNumber(cfg, period, num), nil
}

// SetNextNumber seeds the sequence (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	querier := s.getQuerier(ctx)

	var result int64
	err := querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (sequence_type, year, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = $3
		RETURNING current_val
	`, cfg.Prefix, period.Year(), value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set next number: %w", err)
	}
	return nil
}

func (s *Service) formatNumber(cfg Config, period time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 5
	}
	return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), pad, num)
}
