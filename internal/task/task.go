// Package task defines the task entity and the contract of the remote
// task store the screen mirrors.
package task

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Update when the task does not exist or is
// owned by a different user.
var ErrNotFound = errors.New("task not found")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a priority string. Anything unrecognized
// falls back to medium, the default.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Next cycles low -> medium -> high -> low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// Task is a remote-owned document. ID and OwnerID never change after
// creation; a task is only ever visible to its owner. A zero DueDate
// means the task has no due date.
type Task struct {
	ID        string
	Title     string
	Completed bool
	OwnerID   string
	CreatedAt time.Time
	DueDate   time.Time
	Priority  Priority
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return !t.DueDate.IsZero()
}

// Fields is a partial update: only non-nil fields are applied.
type Fields struct {
	Title     *string
	Completed *bool
	Priority  *Priority
}

// Subscription is a standing owner-scoped query. Every remote change
// yields a new complete snapshot on Snapshots; the channel is closed by
// Cancel and nothing is delivered afterward.
type Subscription interface {
	Snapshots() <-chan []Task
	Cancel()
}

// Store owns the authoritative task collection. None of the mutating
// operations update a subscriber's view directly; the result of a
// mutation is observable only through the next snapshot. The store does
// no input validation of its own.
type Store interface {
	Subscribe(ownerID string) (Subscription, error)
	Create(ctx context.Context, ownerID, title string, due time.Time, priority Priority) error
	Update(ctx context.Context, ownerID, taskID string, fields Fields) error
	Delete(ctx context.Context, ownerID, taskID string) error
}
