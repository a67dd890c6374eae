// Package events owns TimeEvent persistence: an append-only store with a
// durable cache in front of it when configured. Nothing else in the system
// writes clock events.
package events

import (
	"context"

	"shiftledger/internal/domain"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory, PostgreSQL, or cached persistence without rewiring
// business code.
//
// Append takes one or more events so manager overrides that synthesize an
// in/out pair land atomically. List always returns events sorted by
// timestamp ascending; the derivation engine depends on that ordering.
type Store interface {
	Append(ctx context.Context, tenantID string, events ...domain.TimeEvent) ([]domain.TimeEvent, error)
	List(ctx context.Context, tenantID string) ([]domain.TimeEvent, error)
	Remove(ctx context.Context, tenantID, id string) error
	Patch(ctx context.Context, tenantID, id string, patch domain.EventPatch) (domain.TimeEvent, error)
}
