package resource

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

// TaskAPI is the task backend the hook needs. *api.TaskService satisfies it.
type TaskAPI interface {
	List(ctx context.Context, p Filter) (*models.Page[models.Task], error)
	Mine(ctx context.Context, p Filter) (*models.Page[models.Task], error)
	Create(ctx context.Context, req models.TaskRequest) (*models.Task, error)
	Update(ctx context.Context, id int64, req models.TaskRequest) (*models.Task, error)
	UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Tasks is the task list hook.
type Tasks struct {
	*Query[models.Task]
	svc TaskAPI
}

// NewTasks builds the task hook for the given strategy.
func NewTasks(svc TaskAPI, strategy session.Strategy, filter Filter, deps Deps) *Tasks {
	ep := Endpoints[models.Task]{All: svc.List, Mine: svc.Mine}
	return &Tasks{
		Query: NewQuery("tasks", ep, strategy, TasksPageSize, filter, deps),
		svc:   svc,
	}
}

// Create creates a task and refetches.
func (t *Tasks) Create(ctx context.Context, req models.TaskRequest) error {
	return t.mutate(ctx, "Task created successfully", "Failed to create task", func(ctx context.Context) error {
		_, err := t.svc.Create(ctx, req)
		return err
	})
}

// Update edits a task and refetches.
func (t *Tasks) Update(ctx context.Context, id int64, req models.TaskRequest) error {
	return t.mutate(ctx, "Task updated successfully", "Failed to update task", func(ctx context.Context) error {
		_, err := t.svc.Update(ctx, id, req)
		return err
	})
}

// UpdateStatus changes a task's status and refetches.
func (t *Tasks) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	return t.mutate(ctx, "Task status updated successfully", "Failed to update task status", func(ctx context.Context) error {
		_, err := t.svc.UpdateStatus(ctx, id, status)
		return err
	})
}

// Delete soft-deletes a task and refetches.
func (t *Tasks) Delete(ctx context.Context, id int64) error {
	return t.mutate(ctx, "Task deleted successfully", "Failed to delete task", func(ctx context.Context) error {
		return t.svc.Delete(ctx, id)
	})
}
