package mongodb

import (
	"context"
	"time"

	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/tasks/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// listCap bounds a single list response. A defensive cap, not pagination.
const listCap = 1000

// MongoTaskRepository implements the TaskRepository interface using MongoDB.
// Every filter it builds conjoins user_id; no method can express a cross-owner
// read or write.
type MongoTaskRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoTaskRepository creates a new MongoDB task repository
func NewMongoTaskRepository(db *mongo.Database) (*MongoTaskRepository, error) {
	repo := &MongoTaskRepository{
		db:         db,
		collection: db.Collection("tasks"),
	}

	ctx := context.Background()

	// Task id is unique per owner; the compound index also serves the
	// owner-scoped point lookups.
	idIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.collection.Indexes().CreateOne(ctx, idIndex); err != nil {
		return nil, err
	}

	// List path: owner scan in creation order.
	listIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	}
	if _, err := repo.collection.Indexes().CreateOne(ctx, listIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// ownerFilter is the base predicate every operation starts from.
func ownerFilter(ownerID string) bson.M {
	return bson.M{"user_id": ownerID}
}

// Create inserts a task. The caller (usecase) has already stamped id,
// user_id, status and timestamps.
func (r *MongoTaskRepository) Create(ctx context.Context, task *model.Task) error {
	_, err := r.collection.InsertOne(ctx, task)
	return err
}

// List returns the owner's tasks, optionally filtered by status/priority
// equality, in creation order, capped at 1000 documents.
func (r *MongoTaskRepository) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	query := ownerFilter(ownerID)
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(listCap)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := make([]*model.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns the owner's task by id. A task owned by someone else is
// indistinguishable from a missing one.
func (r *MongoTaskRepository) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	query := ownerFilter(ownerID)
	query["id"] = taskID

	var task model.Task
	err := r.collection.FindOne(ctx, query).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Update applies the partial update under the owner-scoped predicate and
// returns the post-update document. updated_at is always refreshed, even for
// an empty update. Concurrent updates race with last-writer-wins semantics at
// the store.
func (r *MongoTaskRepository) Update(ctx context.Context, ownerID, taskID string, update *model.TaskUpdate, now time.Time) (*model.Task, error) {
	query := ownerFilter(ownerID)
	query["id"] = taskID

	set := bson.M{"updated_at": now}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.DueDate != nil {
		set["due_date"] = *update.DueDate
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}

	changes := bson.M{"$set": set}

	unset := bson.M{}
	if update.ClearDescription {
		unset["description"] = ""
	}
	if update.ClearDueDate {
		unset["due_date"] = ""
	}
	if len(unset) > 0 {
		changes["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task model.Task
	err := r.collection.FindOneAndUpdate(ctx, query, changes, opts).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Delete removes the owner's task by id. No soft-delete.
func (r *MongoTaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	query := ownerFilter(ownerID)
	query["id"] = taskID

	result, err := r.collection.DeleteOne(ctx, query)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}
