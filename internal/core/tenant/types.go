// Package tenant implements property-level isolation.
// Each tenant is one hotel property with its own Postgres database
// (Database-per-Tenant); request middleware resolves the tenant and
// injects its pool into the request context.
package tenant

// Tenant describes one hotel property served by this backend.
type Tenant struct {
	// ID is the tenant UUID presented in the X-Tenant-ID header.
	ID string

	// Name is a human-readable property name, for logs only.
	Name string

	// Currency is the ISO 4217 code invoices are denominated in.
	Currency string
}
