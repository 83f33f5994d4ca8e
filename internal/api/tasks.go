package api

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
)

// TaskService wraps the /tasks endpoints.
type TaskService struct {
	doer Doer
}

// NewTaskService creates a TaskService.
func NewTaskService(d Doer) *TaskService {
	return &TaskService{doer: d}
}

// List returns tasks matching the full filter set.
func (s *TaskService) List(ctx context.Context, p ListParams) (*models.Page[models.Task], error) {
	return s.page(ctx, "/tasks", p)
}

// Mine returns the caller's tasks. Only page and size are sent.
func (s *TaskService) Mine(ctx context.Context, p ListParams) (*models.Page[models.Task], error) {
	return s.page(ctx, "/tasks/my-tasks", p.PageOnly())
}

// SoftDeleted returns trashed tasks for p.Scope ("my" or "all").
func (s *TaskService) SoftDeleted(ctx context.Context, p ListParams) (*models.Page[models.Task], error) {
	return s.page(ctx, "/tasks/soft-deleted", ListParams{Page: p.Page, Size: p.Size, Scope: p.Scope})
}

// Get fetches one task.
func (s *TaskService) Get(ctx context.Context, taskID int64) (*models.Task, error) {
	var task models.Task
	if err := get(ctx, s.doer, "/tasks/"+id(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a task.
func (s *TaskService) Create(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	var task models.Task
	if err := post(ctx, s.doer, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update replaces the editable fields of a task.
func (s *TaskService) Update(ctx context.Context, taskID int64, req models.TaskRequest) (*models.Task, error) {
	var task models.Task
	if err := put(ctx, s.doer, "/tasks/"+id(taskID), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus changes only the status; assignees may call it.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) (*models.Task, error) {
	var task models.Task
	if err := patch(ctx, s.doer, "/tasks/"+id(taskID)+"/status", models.TaskStatusRequest{Status: status}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete soft-deletes a task.
func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	return del(ctx, s.doer, "/tasks/"+id(taskID), nil)
}

// Restore brings a soft-deleted task back.
func (s *TaskService) Restore(ctx context.Context, taskID int64) error {
	return patch(ctx, s.doer, "/tasks/"+id(taskID)+"/restore", nil, nil)
}

func (s *TaskService) page(ctx context.Context, path string, p ListParams) (*models.Page[models.Task], error) {
	var page models.Page[models.Task]
	if err := get(ctx, s.doer, path, p.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
