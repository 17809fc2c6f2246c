package store

import (
	"context"

	"github.com/PratikDhanave/doorbell-event-service/internal/models"
)

// RecordStore persists doorbell events into a named collection.
// Implementations are safe for concurrent use.
type RecordStore interface {
	// PutEvent writes a single record. No retry is attempted.
	PutEvent(ctx context.Context, ev models.DoorbellEvent) error

	// Ping validates connectivity for the readiness probe.
	Ping(ctx context.Context) error

	Close() error
}
