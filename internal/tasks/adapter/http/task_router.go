package http

import (
	"errors"

	authhttp "taskflow/internal/auth/adapter/http"
	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/logger"
	"taskflow/internal/tasks/domain/model"
	"taskflow/internal/tasks/usecase"

	"github.com/gofiber/fiber/v2"
)

// TaskHTTPHandler handles HTTP requests for task resources
type TaskHTTPHandler struct {
	usecase usecase.TaskUsecaseInterface
	log     logger.Logger
}

// NewTaskHTTPHandler creates a new task HTTP handler
func NewTaskHTTPHandler(uc usecase.TaskUsecaseInterface, log logger.Logger) *TaskHTTPHandler {
	return &TaskHTTPHandler{
		usecase: uc,
		log:     log.WithComponent("task_http"),
	}
}

// SetupTaskRoutes sets up task routes. Every route requires a resolved
// session; the owner id used for scoping comes from the session, never from
// client input.
func (h *TaskHTTPHandler) SetupTaskRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware, ws *WebSocketHandler) {
	protected := router.Group("/", middleware.Protect())

	if ws != nil {
		ws.RegisterRoutes(protected)
	}

	protected.Post("/", h.CreateTask)
	protected.Get("/", h.ListTasks)
	protected.Get("/:taskId", h.GetTask)
	protected.Put("/:taskId", h.UpdateTask)
	protected.Delete("/:taskId", h.DeleteTask)
}

// CreateTask handles task creation
func (h *TaskHTTPHandler) CreateTask(c *fiber.Ctx) error {
	owner, ok := authhttp.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var req model.TaskCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.usecase.CreateTask(c.Context(), owner.ID, &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// ListTasks returns the caller's tasks with optional status/priority filters
func (h *TaskHTTPHandler) ListTasks(c *fiber.Ctx) error {
	owner, ok := authhttp.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var filter model.TaskFilter
	if v := c.Query("status"); v != "" {
		status := model.Status(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := model.Priority(v)
		filter.Priority = &priority
	}

	tasks, err := h.usecase.ListTasks(c.Context(), owner.ID, filter)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(tasks)
}

// GetTask returns a single task by id
func (h *TaskHTTPHandler) GetTask(c *fiber.Ctx) error {
	owner, ok := authhttp.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	task, err := h.usecase.GetTask(c.Context(), owner.ID, c.Params("taskId"))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// UpdateTask applies a partial update to a task
func (h *TaskHTTPHandler) UpdateTask(c *fiber.Ctx) error {
	owner, ok := authhttp.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var update model.TaskUpdate
	if err := update.UnmarshalJSON(c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.usecase.UpdateTask(c.Context(), owner.ID, c.Params("taskId"), &update)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// DeleteTask removes a task
func (h *TaskHTTPHandler) DeleteTask(c *fiber.Ctx) error {
	owner, ok := authhttp.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.usecase.DeleteTask(c.Context(), owner.ID, c.Params("taskId")); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
	})
}

// respondError maps domain errors to HTTP statuses. A task that exists for
// another owner reports the same 404 as a missing one.
func (h *TaskHTTPHandler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	case apperrors.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		h.log.WithContext(c.UserContext()).Errorf("Task operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Not authenticated",
	})
}
