package model

import "time"

// TaskEventType identifies a task change event.
type TaskEventType string

const (
	TaskEventCreated TaskEventType = "task.created"
	TaskEventUpdated TaskEventType = "task.updated"
	TaskEventDeleted TaskEventType = "task.deleted"
)

// ResumeToken lets a realtime client resume an event stream after the last
// event it saw. The token is opaque to clients; with the Redis store it is a
// stream entry id.
type ResumeToken string

// TaskEvent is emitted on every task mutation. Events are scoped to the
// owning user and are only ever delivered to that owner's subscribers.
type TaskEvent struct {
	Type        TaskEventType `json:"type"`
	TaskID      string        `json:"task_id"`
	UserID      string        `json:"user_id"`
	Task        *Task         `json:"task,omitempty"` // nil for deletes
	Timestamp   time.Time     `json:"timestamp"`
	ResumeToken ResumeToken   `json:"resume_token,omitempty"`
}
