package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant is registered under the given ID.
	ErrTenantNotFound = errors.New("tenant not found")
)
