package repository

import (
	"context"
	"time"

	"taskflow/internal/tasks/domain/model"
)

// TaskEventStore persists task change events for resumable realtime streams.
// Persistence is best effort: a store failure never fails the mutation that
// produced the event.
type TaskEventStore interface {
	StoreEvent(ctx context.Context, event model.TaskEvent) error
	// GetEventsSince returns the owner's events after the given resume token,
	// oldest first. An empty token reads from the beginning of retention.
	GetEventsSince(ctx context.Context, ownerID string, resumeToken model.ResumeToken) ([]model.TaskEvent, error)
	CleanupOldEvents(ctx context.Context, retention time.Duration) error
}
