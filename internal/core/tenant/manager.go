package tenant

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config describes one tenant known at boot.
type Config struct {
	Tenant Tenant
	DSN    string
}

// NewPoolFunc creates a connection pool for one tenant DSN. The
// infrastructure layer supplies it so pool tuning stays out of core.
type NewPoolFunc func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// Manager holds one connection pool per tenant.
// Pools are created eagerly at startup: one server instance serves a
// small, fixed set of properties.
type Manager struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
	pools   map[string]*pgxpool.Pool
}

// NewManager connects to every configured tenant database.
// Fails fast if any tenant database is unreachable.
// A nil newPool falls back to pgxpool defaults.
func NewManager(ctx context.Context, configs []Config, newPool NewPoolFunc) (*Manager, error) {
	if newPool == nil {
		newPool = func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
			return pgxpool.New(ctx, dsn)
		}
	}

	m := &Manager{
		tenants: make(map[string]*Tenant, len(configs)),
		pools:   make(map[string]*pgxpool.Pool, len(configs)),
	}

	for _, cfg := range configs {
		pool, err := newPool(ctx, cfg.DSN)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("create pool for tenant %s: %w", cfg.Tenant.ID, err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			m.Close()
			return nil, fmt.Errorf("ping tenant %s database: %w", cfg.Tenant.ID, err)
		}

		t := cfg.Tenant
		m.tenants[t.ID] = &t
		m.pools[t.ID] = pool
	}

	return m, nil
}

// Resolve returns the tenant and its pool for the given ID.
func (m *Manager) Resolve(tenantID string) (*Tenant, *pgxpool.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, nil, ErrTenantNotFound
	}
	return t, m.pools[tenantID], nil
}

// Tenants returns all registered tenants.
func (m *Manager) Tenants() []Tenant {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out
}

// Ping checks connectivity of every tenant pool.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, pool := range m.pools {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("tenant %s: %w", id, err)
		}
	}
	return nil
}

// Close releases every pool.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pool := range m.pools {
		pool.Close()
	}
	m.pools = make(map[string]*pgxpool.Pool)
	m.tenants = make(map[string]*Tenant)
}
