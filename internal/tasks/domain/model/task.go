package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a personal to-do record. UserID is stamped from the resolved
// session at creation and is never mutable; ownership is permanent.
type Task struct {
	ID          string     `json:"id" bson:"id"`
	UserID      string     `json:"user_id" bson:"user_id"`
	Title       string     `json:"title" bson:"title"`
	Description *string    `json:"description,omitempty" bson:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Status      Status     `json:"status" bson:"status"`
	Priority    Priority   `json:"priority" bson:"priority"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// TaskCreate is the request payload for creating a task.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
}

// Validate checks the create payload. An absent priority defaults to medium.
func (tc *TaskCreate) Validate() error {
	if tc.Title == "" {
		return fmt.Errorf("title is required")
	}
	if tc.Priority == "" {
		tc.Priority = PriorityMedium
	}
	if !tc.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", tc.Priority)
	}
	return nil
}

// TaskUpdate carries partial-update semantics. A field left out of the JSON
// body leaves the stored value untouched. An explicit null clears the field
// when it is nullable (description, due_date) and is ignored otherwise.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *Status
	Priority    *Priority

	ClearDescription bool
	ClearDueDate     bool
}

// taskUpdateWire mirrors the JSON field names for decoding.
type taskUpdateWire struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	DueDate     json.RawMessage `json:"due_date"`
	Status      json.RawMessage `json:"status"`
	Priority    json.RawMessage `json:"priority"`
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// UnmarshalJSON distinguishes absent fields from explicit nulls.
func (tu *TaskUpdate) UnmarshalJSON(data []byte) error {
	var wire taskUpdateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.Title != nil && !isNull(wire.Title) {
		var v string
		if err := json.Unmarshal(wire.Title, &v); err != nil {
			return fmt.Errorf("invalid title: %w", err)
		}
		tu.Title = &v
	}

	if wire.Description != nil {
		if isNull(wire.Description) {
			tu.ClearDescription = true
		} else {
			var v string
			if err := json.Unmarshal(wire.Description, &v); err != nil {
				return fmt.Errorf("invalid description: %w", err)
			}
			tu.Description = &v
		}
	}

	if wire.DueDate != nil {
		if isNull(wire.DueDate) {
			tu.ClearDueDate = true
		} else {
			var v time.Time
			if err := json.Unmarshal(wire.DueDate, &v); err != nil {
				return fmt.Errorf("invalid due_date: %w", err)
			}
			tu.DueDate = &v
		}
	}

	if wire.Status != nil && !isNull(wire.Status) {
		var v Status
		if err := json.Unmarshal(wire.Status, &v); err != nil {
			return fmt.Errorf("invalid status: %w", err)
		}
		tu.Status = &v
	}

	if wire.Priority != nil && !isNull(wire.Priority) {
		var v Priority
		if err := json.Unmarshal(wire.Priority, &v); err != nil {
			return fmt.Errorf("invalid priority: %w", err)
		}
		tu.Priority = &v
	}

	return nil
}

// Validate checks the fields that are present.
func (tu *TaskUpdate) Validate() error {
	if tu.Title != nil && *tu.Title == "" {
		return fmt.Errorf("title must not be empty")
	}
	if tu.Status != nil && !tu.Status.Valid() {
		return fmt.Errorf("invalid status %q", *tu.Status)
	}
	if tu.Priority != nil && !tu.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", *tu.Priority)
	}
	return nil
}

// TaskFilter narrows a list operation. Absent fields match everything;
// present fields match by equality.
type TaskFilter struct {
	Status   *Status
	Priority *Priority
}
