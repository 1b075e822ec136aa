package usecase_test

import (
	"context"
	"testing"
	"time"

	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/eventbus"
	"taskflow/internal/shared/logger"
	"taskflow/internal/tasks/domain/model"
	"taskflow/internal/tasks/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Mock repository
type mockTaskRepository struct {
	mock.Mock
}

func (m *mockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepository) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

func (m *mockTaskRepository) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *mockTaskRepository) Update(ctx context.Context, ownerID, taskID string, update *model.TaskUpdate, now time.Time) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID, update, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *mockTaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	args := m.Called(ctx, ownerID, taskID)
	return args.Error(0)
}

// Mock event store
type mockTaskEventStore struct {
	mock.Mock
}

func (m *mockTaskEventStore) StoreEvent(ctx context.Context, event model.TaskEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockTaskEventStore) GetEventsSince(ctx context.Context, ownerID string, resumeToken model.ResumeToken) ([]model.TaskEvent, error) {
	args := m.Called(ctx, ownerID, resumeToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TaskEvent), args.Error(1)
}

func (m *mockTaskEventStore) CleanupOldEvents(ctx context.Context, retention time.Duration) error {
	args := m.Called(ctx, retention)
	return args.Error(0)
}

type TaskUsecaseTestSuite struct {
	suite.Suite
	mockRepo  *mockTaskRepository
	mockStore *mockTaskEventStore
	bus       *eventbus.EventBus
	usecase   *usecase.TaskUsecase
	now       time.Time
	published []eventbus.Event
}

func (suite *TaskUsecaseTestSuite) SetupTest() {
	suite.mockRepo = &mockTaskRepository{}
	suite.mockStore = &mockTaskEventStore{}
	suite.bus = eventbus.NewEventBus(logger.NewTestLogger())
	suite.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	suite.published = nil

	// Capture everything the usecase fans out
	capture := func(ctx context.Context, event eventbus.Event) error {
		suite.published = append(suite.published, event)
		return nil
	}
	suite.bus.Subscribe(string(model.TaskEventCreated), capture)
	suite.bus.Subscribe(string(model.TaskEventUpdated), capture)
	suite.bus.Subscribe(string(model.TaskEventDeleted), capture)

	suite.usecase = usecase.NewTaskUsecase(
		suite.mockRepo, suite.bus, suite.mockStore, logger.NewTestLogger(),
	).WithClock(func() time.Time { return suite.now })
}

func (suite *TaskUsecaseTestSuite) TestCreateTask_Success() {
	// Arrange
	ctx := context.Background()
	req := &model.TaskCreate{Title: "Buy milk"}

	suite.mockRepo.On("Create", ctx, mock.MatchedBy(func(task *model.Task) bool {
		return task.UserID == "user-1" &&
			task.Title == "Buy milk" &&
			task.Status == model.StatusPending &&
			task.Priority == model.PriorityMedium &&
			task.CreatedAt.Equal(suite.now) &&
			task.UpdatedAt.Equal(suite.now) &&
			task.ID != ""
	})).Return(nil)
	suite.mockStore.On("StoreEvent", ctx, mock.Anything).Return(nil)

	// Act
	task, err := suite.usecase.CreateTask(ctx, "user-1", req)

	// Assert
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), task.ID)
	assert.Equal(suite.T(), model.StatusPending, task.Status)
	assert.Equal(suite.T(), model.PriorityMedium, task.Priority)
	assert.Equal(suite.T(), task.CreatedAt, task.UpdatedAt)

	require.Len(suite.T(), suite.published, 1)
	assert.Equal(suite.T(), string(model.TaskEventCreated), suite.published[0].Type())

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *TaskUsecaseTestSuite) TestCreateTask_MissingTitle() {
	// Act
	task, err := suite.usecase.CreateTask(context.Background(), "user-1", &model.TaskCreate{})

	// Assert
	assert.True(suite.T(), apperrors.IsValidation(err))
	assert.Nil(suite.T(), task)
	assert.Empty(suite.T(), suite.published)

	suite.mockRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *TaskUsecaseTestSuite) TestCreateTask_InvalidPriority() {
	// Act
	task, err := suite.usecase.CreateTask(context.Background(), "user-1", &model.TaskCreate{
		Title:    "Buy milk",
		Priority: "urgent",
	})

	// Assert
	assert.True(suite.T(), apperrors.IsValidation(err))
	assert.Nil(suite.T(), task)
}

func (suite *TaskUsecaseTestSuite) TestCreateTask_EventStoreFailureTolerated() {
	// Arrange: a failing event store never fails the mutation
	ctx := context.Background()
	suite.mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	suite.mockStore.On("StoreEvent", ctx, mock.Anything).Return(assert.AnError)

	// Act
	task, err := suite.usecase.CreateTask(ctx, "user-1", &model.TaskCreate{Title: "Buy milk"})

	// Assert
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), task)
}

func (suite *TaskUsecaseTestSuite) TestListTasks_PassesFilter() {
	// Arrange
	ctx := context.Background()
	status := model.StatusPending
	filter := model.TaskFilter{Status: &status}
	stored := []*model.Task{{ID: "task-1", UserID: "user-1", Title: "A"}}

	suite.mockRepo.On("List", ctx, "user-1", filter).Return(stored, nil)

	// Act
	tasks, err := suite.usecase.ListTasks(ctx, "user-1", filter)

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored, tasks)
}

func (suite *TaskUsecaseTestSuite) TestListTasks_InvalidFilterEnum() {
	// Arrange
	bad := model.Status("archived")

	// Act
	tasks, err := suite.usecase.ListTasks(context.Background(), "user-1", model.TaskFilter{Status: &bad})

	// Assert
	assert.True(suite.T(), apperrors.IsValidation(err))
	assert.Nil(suite.T(), tasks)
	suite.mockRepo.AssertNotCalled(suite.T(), "List")
}

func (suite *TaskUsecaseTestSuite) TestGetTask_NotFoundPassthrough() {
	// Arrange
	ctx := context.Background()
	suite.mockRepo.On("Get", ctx, "user-1", "task-9").Return(nil, apperrors.ErrTaskNotFound)

	// Act
	task, err := suite.usecase.GetTask(ctx, "user-1", "task-9")

	// Assert
	assert.ErrorIs(suite.T(), err, apperrors.ErrTaskNotFound)
	assert.Nil(suite.T(), task)
}

func (suite *TaskUsecaseTestSuite) TestUpdateTask_Success() {
	// Arrange
	ctx := context.Background()
	title := "Renamed"
	update := &model.TaskUpdate{Title: &title}
	updated := &model.Task{ID: "task-1", UserID: "user-1", Title: "Renamed", UpdatedAt: suite.now}

	suite.mockRepo.On("Update", ctx, "user-1", "task-1", update, suite.now).Return(updated, nil)
	suite.mockStore.On("StoreEvent", ctx, mock.Anything).Return(nil)

	// Act
	task, err := suite.usecase.UpdateTask(ctx, "user-1", "task-1", update)

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed", task.Title)

	require.Len(suite.T(), suite.published, 1)
	assert.Equal(suite.T(), string(model.TaskEventUpdated), suite.published[0].Type())
}

func (suite *TaskUsecaseTestSuite) TestUpdateTask_InvalidStatus() {
	// Arrange
	bad := model.Status("archived")
	update := &model.TaskUpdate{Status: &bad}

	// Act
	task, err := suite.usecase.UpdateTask(context.Background(), "user-1", "task-1", update)

	// Assert
	assert.True(suite.T(), apperrors.IsValidation(err))
	assert.Nil(suite.T(), task)
	suite.mockRepo.AssertNotCalled(suite.T(), "Update")
}

func (suite *TaskUsecaseTestSuite) TestUpdateTask_NotFoundPublishesNothing() {
	// Arrange
	ctx := context.Background()
	update := &model.TaskUpdate{}
	suite.mockRepo.On("Update", ctx, "user-1", "gone", update, suite.now).Return(nil, apperrors.ErrTaskNotFound)

	// Act
	task, err := suite.usecase.UpdateTask(ctx, "user-1", "gone", update)

	// Assert
	assert.ErrorIs(suite.T(), err, apperrors.ErrTaskNotFound)
	assert.Nil(suite.T(), task)
	assert.Empty(suite.T(), suite.published)
}

func (suite *TaskUsecaseTestSuite) TestDeleteTask_Success() {
	// Arrange
	ctx := context.Background()
	suite.mockRepo.On("Delete", ctx, "user-1", "task-1").Return(nil)
	suite.mockStore.On("StoreEvent", ctx, mock.MatchedBy(func(event model.TaskEvent) bool {
		return event.Type == model.TaskEventDeleted && event.TaskID == "task-1" && event.Task == nil
	})).Return(nil)

	// Act
	err := suite.usecase.DeleteTask(ctx, "user-1", "task-1")

	// Assert
	require.NoError(suite.T(), err)
	require.Len(suite.T(), suite.published, 1)
	assert.Equal(suite.T(), string(model.TaskEventDeleted), suite.published[0].Type())
}

func (suite *TaskUsecaseTestSuite) TestDeleteTask_NotFound() {
	// Arrange
	ctx := context.Background()
	suite.mockRepo.On("Delete", ctx, "user-1", "gone").Return(apperrors.ErrTaskNotFound)

	// Act
	err := suite.usecase.DeleteTask(ctx, "user-1", "gone")

	// Assert
	assert.ErrorIs(suite.T(), err, apperrors.ErrTaskNotFound)
	assert.Empty(suite.T(), suite.published)
}

func TestTaskUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(TaskUsecaseTestSuite))
}
