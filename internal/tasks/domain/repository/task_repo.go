package repository

import (
	"context"
	"time"

	"taskflow/internal/tasks/domain/model"
)

// TaskRepository is owner-scoped CRUD over task records. Every method takes
// the owner's id and every store predicate conjoins user_id with it; this is
// the isolation boundary, not something left to callers. A task that exists
// but belongs to another owner reports not-found.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID string, update *model.TaskUpdate, now time.Time) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
}
