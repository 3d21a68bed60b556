package studio

import (
	"context"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle status of an async generation task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailed  TaskStatus = "failed"
)

// Task represents an async operation that can be polled for completion.
type Task[T any] struct {
	// ID is the remote operation identifier.
	ID string

	query func(ctx context.Context) (*T, TaskStatus, error)
}

// NewTask creates a Task over a status query. The query returns the result
// only once the status is TaskStatusSuccess.
func NewTask[T any](id string, query func(ctx context.Context) (*T, TaskStatus, error)) *Task[T] {
	return &Task[T]{ID: id, query: query}
}

// Wait waits for the task to complete and returns the result.
//
// Uses a default polling interval of 5 seconds. Use WaitWithInterval
// for custom intervals.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
//	defer cancel()
//	result, err := task.Wait(ctx)
func (t *Task[T]) Wait(ctx context.Context) (*T, error) {
	return t.WaitWithInterval(ctx, 5*time.Second)
}

// WaitWithInterval waits for the task to complete with a custom polling interval.
func (t *Task[T]) WaitWithInterval(ctx context.Context, interval time.Duration) (*T, error) {
	// Query immediately before first ticker interval
	result, status, err := t.query(ctx)
	if err != nil {
		return nil, err
	}
	switch status {
	case TaskStatusSuccess:
		return result, nil
	case TaskStatusFailed:
		return nil, fmt.Errorf("studio: task %s failed", t.ID)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			result, status, err := t.query(ctx)
			if err != nil {
				return nil, err
			}
			switch status {
			case TaskStatusSuccess:
				return result, nil
			case TaskStatusFailed:
				return nil, fmt.Errorf("studio: task %s failed", t.ID)
			case TaskStatusPending:
				// Continue waiting
			default:
				return nil, fmt.Errorf("studio: unknown task status: %s", status)
			}
		}
	}
}

// Status returns the current task status without blocking.
func (t *Task[T]) Status(ctx context.Context) (TaskStatus, error) {
	_, status, err := t.query(ctx)
	return status, err
}
