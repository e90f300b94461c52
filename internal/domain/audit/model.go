// Package audit defines the checkout audit trail contract.
package audit

import (
	"context"
	"time"

	"posada/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCheckout Action = "checkout"
	ActionLogin    Action = "login"
)

// Event is one audit trail entry. Changes holds the business payload
// (invoice totals, overrides, justification); Metadata holds request
// context (trace id, client address).
type Event struct {
	ID         id.ID
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	UserEmail  string
	Changes    map[string]any
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Recorder persists audit events. Implementations must not fail the
// business operation: callers log recorder errors and move on.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}
