package tasks

import (
	"context"
	"fmt"
	"time"

	authhttp "taskflow/internal/auth/adapter/http"
	"taskflow/internal/shared/eventbus"
	"taskflow/internal/shared/logger"
	taskshttp "taskflow/internal/tasks/adapter/http"
	"taskflow/internal/tasks/adapter/persistence"
	"taskflow/internal/tasks/adapter/persistence/mongodb"
	"taskflow/internal/tasks/domain/repository"
	"taskflow/internal/tasks/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// eventRetention bounds how far back resumable streams reach.
	eventRetention      = 24 * time.Hour
	eventCleanupTimeout = 10 * time.Second
)

// TasksModule represents the complete task module
type TasksModule struct {
	repository repository.TaskRepository
	eventStore repository.TaskEventStore
	usecase    usecase.TaskUsecaseInterface
	handler    *taskshttp.TaskHTTPHandler
	wsHandler  *taskshttp.WebSocketHandler
	bus        eventbus.EventBusInterface
	middleware *authhttp.AuthMiddleware
	log        logger.Logger
}

// NewTasksModule creates a new task module instance. redisClient may be nil;
// the realtime feed then runs on the in-process bus without resume support.
func NewTasksModule(
	db *mongo.Database,
	redisClient *redis.Client,
	middleware *authhttp.AuthMiddleware,
	log logger.Logger,
) (*TasksModule, error) {
	taskRepo, err := mongodb.NewMongoTaskRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create task repository: %w", err)
	}

	bus := eventbus.NewEventBus(log)

	var eventStore repository.TaskEventStore
	if redisClient != nil {
		eventStore = persistence.NewRedisEventStore(redisClient, log)
	}

	taskUsecase := usecase.NewTaskUsecase(taskRepo, bus, eventStore, log)
	handler := taskshttp.NewTaskHTTPHandler(taskUsecase, log)
	wsHandler := taskshttp.NewWebSocketHandler(bus, eventStore, log)

	return &TasksModule{
		repository: taskRepo,
		eventStore: eventStore,
		usecase:    taskUsecase,
		handler:    handler,
		wsHandler:  wsHandler,
		bus:        bus,
		middleware: middleware,
		log:        log,
	}, nil
}

// RegisterRoutes registers task routes with the provided router
func (tm *TasksModule) RegisterRoutes(router fiber.Router) {
	tm.handler.SetupTaskRoutes(router, tm.middleware, tm.wsHandler)
}

// GetUsecase returns the task usecase for external access
func (tm *TasksModule) GetUsecase() usecase.TaskUsecaseInterface {
	return tm.usecase
}

// Stop performs cleanup when the module is shut down. Persisted event streams
// are trimmed to the retention cap so a long-lived deployment does not
// accumulate them between restarts.
func (tm *TasksModule) Stop() error {
	if tm.eventStore == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventCleanupTimeout)
	defer cancel()

	if err := tm.eventStore.CleanupOldEvents(ctx, eventRetention); err != nil {
		tm.log.Warnf("Failed to trim task event streams on shutdown: %v", err)
	}
	return nil
}
