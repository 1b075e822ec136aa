package usecase

import (
	"context"
	"fmt"
	"time"

	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/eventbus"
	"taskflow/internal/shared/logger"
	"taskflow/internal/tasks/domain/model"
	"taskflow/internal/tasks/domain/repository"

	"github.com/google/uuid"
)

// TaskUsecaseInterface defines the contract for owner-scoped task operations.
// Every operation takes the resolved owner's id; callers never pass a raw
// client-supplied user id.
type TaskUsecaseInterface interface {
	CreateTask(ctx context.Context, ownerID string, req *model.TaskCreate) (*model.Task, error)
	ListTasks(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, update *model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// TaskUsecase implements the task operations and publishes a change event on
// every successful mutation.
type TaskUsecase struct {
	repo       repository.TaskRepository
	bus        eventbus.EventBusInterface
	eventStore repository.TaskEventStore // optional
	log        logger.Logger
	now        func() time.Time
}

// NewTaskUsecase creates a new instance of TaskUsecase. eventStore may be nil
// when Redis persistence is not configured; the in-process bus still fans out.
func NewTaskUsecase(
	repo repository.TaskRepository,
	bus eventbus.EventBusInterface,
	eventStore repository.TaskEventStore,
	log logger.Logger,
) *TaskUsecase {
	return &TaskUsecase{
		repo:       repo,
		bus:        bus,
		eventStore: eventStore,
		log:        log.WithComponent("task_usecase"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests to pin timestamps.
func (uc *TaskUsecase) WithClock(now func() time.Time) *TaskUsecase {
	uc.now = now
	return uc
}

// CreateTask creates a task for the owner. The id is freshly generated,
// user_id is stamped from the resolved session, status starts as pending and
// created_at equals updated_at.
func (uc *TaskUsecase) CreateTask(ctx context.Context, ownerID string, req *model.TaskCreate) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	now := uc.now()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      model.StatusPending,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	uc.publishEvent(ctx, model.TaskEvent{
		Type:      model.TaskEventCreated,
		TaskID:    task.ID,
		UserID:    ownerID,
		Task:      task,
		Timestamp: now,
	})

	return task, nil
}

// ListTasks returns the owner's tasks filtered by the given predicates.
func (uc *TaskUsecase) ListTasks(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid status %q", *filter.Status))
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid priority %q", *filter.Priority))
	}

	tasks, err := uc.repo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns the owner's task by id.
func (uc *TaskUsecase) GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := uc.repo.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial update. Fields absent from the request leave
// the stored value untouched; an explicit null clears description/due_date.
// updated_at is always refreshed, even for an empty payload.
func (uc *TaskUsecase) UpdateTask(ctx context.Context, ownerID, taskID string, update *model.TaskUpdate) (*model.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	now := uc.now()
	task, err := uc.repo.Update(ctx, ownerID, taskID, update, now)
	if err != nil {
		return nil, err
	}

	uc.publishEvent(ctx, model.TaskEvent{
		Type:      model.TaskEventUpdated,
		TaskID:    task.ID,
		UserID:    ownerID,
		Task:      task,
		Timestamp: now,
	})

	return task, nil
}

// DeleteTask removes the owner's task by id.
func (uc *TaskUsecase) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := uc.repo.Delete(ctx, ownerID, taskID); err != nil {
		return err
	}

	uc.publishEvent(ctx, model.TaskEvent{
		Type:      model.TaskEventDeleted,
		TaskID:    taskID,
		UserID:    ownerID,
		Timestamp: uc.now(),
	})

	return nil
}

// publishEvent fans the event out on the in-process bus and persists it when
// a store is configured. Both are best effort; a completed mutation is never
// failed retroactively over event delivery.
func (uc *TaskUsecase) publishEvent(ctx context.Context, event model.TaskEvent) {
	if uc.bus != nil {
		if err := uc.bus.Publish(ctx, eventbus.NewBasicEventWithSource(string(event.Type), event, "task_usecase")); err != nil {
			uc.log.Warnf("Failed to publish %s event for task %s: %v", event.Type, event.TaskID, err)
		}
	}
	if uc.eventStore != nil {
		if err := uc.eventStore.StoreEvent(ctx, event); err != nil {
			uc.log.Warnf("Failed to persist %s event for task %s: %v", event.Type, event.TaskID, err)
		}
	}
}

// Ensure TaskUsecase implements TaskUsecaseInterface
var _ TaskUsecaseInterface = (*TaskUsecase)(nil)
