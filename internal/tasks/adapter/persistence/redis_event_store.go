package persistence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"taskflow/internal/shared/logger"
	"taskflow/internal/tasks/domain/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	streamPrefix    = "tasks:events:"
	streamMaxLength = 10000
	readBatchSize   = 1000
)

// RedisEventStore implements TaskEventStore using Redis Streams. Each owner
// gets a dedicated stream, so resume reads are owner-scoped by construction.
type RedisEventStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisEventStore creates a new Redis-based task event store
func NewRedisEventStore(client *redis.Client, log logger.Logger) *RedisEventStore {
	return &RedisEventStore{
		client: client,
		logger: log,
	}
}

func streamName(ownerID string) string {
	return streamPrefix + ownerID
}

// StoreEvent appends a task event to the owner's stream.
func (r *RedisEventStore) StoreEvent(ctx context.Context, event model.TaskEvent) error {
	var taskData []byte
	if event.Task != nil {
		var err error
		taskData, err = json.Marshal(event.Task)
		if err != nil {
			r.logger.Error("Failed to serialize task for event", zap.Error(err))
			return err
		}
	}

	stream := streamName(event.UserID)

	_, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLength,
		Approx: true,
		Values: map[string]interface{}{
			"type":      string(event.Type),
			"task_id":   event.TaskID,
			"user_id":   event.UserID,
			"task":      taskData,
			"timestamp": event.Timestamp.UnixNano(),
		},
	}).Result()

	if err != nil {
		r.logger.Error("Failed to store event in Redis",
			zap.String("stream", stream),
			zap.String("eventType", string(event.Type)),
			zap.Error(err))
		return err
	}

	r.logger.Debug("Event stored in Redis",
		zap.String("stream", stream),
		zap.String("eventType", string(event.Type)))

	return nil
}

// GetEventsSince retrieves the owner's events after a resume token.
func (r *RedisEventStore) GetEventsSince(ctx context.Context, ownerID string, resumeToken model.ResumeToken) ([]model.TaskEvent, error) {
	stream := streamName(ownerID)
	lastID := "0"
	if resumeToken != "" {
		lastID = string(resumeToken)
	}

	exists, err := r.client.Exists(ctx, stream).Result()
	if err != nil {
		r.logger.Error("Failed to check stream existence",
			zap.String("stream", stream),
			zap.Error(err))
		return nil, err
	}
	if exists == 0 {
		return []model.TaskEvent{}, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.client.XRead(readCtx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   readBatchSize,
		Block:   0,
	}).Result()

	if err != nil {
		if err == redis.Nil || err == context.DeadlineExceeded {
			return []model.TaskEvent{}, nil
		}
		r.logger.Error("Failed to read events from Redis",
			zap.String("stream", stream),
			zap.String("resumeToken", string(resumeToken)),
			zap.Error(err))
		return nil, err
	}

	var events []model.TaskEvent
	for _, streamRes := range res {
		for _, msg := range streamRes.Messages {
			event, err := r.parseEventFromMessage(msg)
			if err != nil {
				r.logger.Warn("Failed to parse event from Redis message",
					zap.String("messageId", msg.ID),
					zap.Error(err))
				continue
			}
			event.ResumeToken = model.ResumeToken(msg.ID)
			events = append(events, event)
		}
	}

	r.logger.Debug("Retrieved events from Redis",
		zap.String("stream", stream),
		zap.Int("eventCount", len(events)))

	return events, nil
}

// CleanupOldEvents trims all task event streams down to the retention cap.
// Trimming by length is enough here; writes already trim approximately.
func (r *RedisEventStore) CleanupOldEvents(ctx context.Context, retention time.Duration) error {
	streams, err := r.client.Keys(ctx, streamPrefix+"*").Result()
	if err != nil {
		r.logger.Error("Failed to get stream names for cleanup", zap.Error(err))
		return err
	}

	trimmed := 0
	for _, stream := range streams {
		n, err := r.client.XTrimMaxLen(ctx, stream, streamMaxLength).Result()
		if err != nil {
			r.logger.Warn("Failed to trim stream",
				zap.String("stream", stream),
				zap.Error(err))
			continue
		}
		if n > 0 {
			trimmed++
		}
	}

	if trimmed > 0 {
		r.logger.Info("Trimmed task event streams", zap.Int("streamsAffected", trimmed))
	}

	return nil
}

// parseEventFromMessage reconstructs a TaskEvent from a stream entry.
func (r *RedisEventStore) parseEventFromMessage(msg redis.XMessage) (model.TaskEvent, error) {
	event := model.TaskEvent{}

	if v, ok := msg.Values["type"].(string); ok {
		event.Type = model.TaskEventType(v)
	}
	if v, ok := msg.Values["task_id"].(string); ok {
		event.TaskID = v
	}
	if v, ok := msg.Values["user_id"].(string); ok {
		event.UserID = v
	}
	if v, ok := msg.Values["task"].(string); ok && v != "" {
		var task model.Task
		if err := json.Unmarshal([]byte(v), &task); err == nil {
			event.Task = &task
		}
	}
	if v, ok := msg.Values["timestamp"].(string); ok {
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			event.Timestamp = time.Unix(0, ns).UTC()
		}
	}

	return event, nil
}
