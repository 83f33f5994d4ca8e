package resource

import (
	"context"
	"strings"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

// TrashAPI lists and restores soft-deleted records of one resource.
type TrashAPI[T any] interface {
	SoftDeleted(ctx context.Context, p Filter) (*models.Page[T], error)
	Restore(ctx context.Context, id int64) error
}

// SoftDeleted is the hook over the trashed subset of a resource. The listing
// scope ("all" or "my") is fixed when the hook is built.
type SoftDeleted[T any] struct {
	*Query[T]
	svc     TrashAPI[T]
	scope   string
	restore string
}

func newSoftDeleted[T any](name, label string, svc TrashAPI[T], strategy session.Strategy, filter Filter, deps Deps) *SoftDeleted[T] {
	scope := strategy.Scope()
	list := func(ctx context.Context, f Filter) (*models.Page[T], error) {
		return svc.SoftDeleted(ctx, Filter{Page: f.Page, Size: f.Size, Scope: scope})
	}
	return &SoftDeleted[T]{
		Query:   NewQuery(name, Endpoints[T]{All: list, Mine: list}, strategy, SoftDeletedPageSize, filter, deps),
		svc:     svc,
		scope:   scope,
		restore: label,
	}
}

// NewSoftDeletedTasks builds the trashed-tasks hook.
func NewSoftDeletedTasks(svc TrashAPI[models.Task], strategy session.Strategy, filter Filter, deps Deps) *SoftDeleted[models.Task] {
	return newSoftDeleted("soft-deleted tasks", "Task", svc, strategy, filter, deps)
}

// NewSoftDeletedProjects builds the trashed-projects hook.
func NewSoftDeletedProjects(svc TrashAPI[models.Project], strategy session.Strategy, filter Filter, deps Deps) *SoftDeleted[models.Project] {
	return newSoftDeleted("soft-deleted projects", "Project", svc, strategy, filter, deps)
}

// Scope returns the listing scope.
func (s *SoftDeleted[T]) Scope() string { return s.scope }

// Restore recovers a record and refetches the trash.
func (s *SoftDeleted[T]) Restore(ctx context.Context, id int64) error {
	return s.mutate(ctx, s.restore+" restored successfully", "Failed to restore "+strings.ToLower(s.restore), func(ctx context.Context) error {
		return s.svc.Restore(ctx, id)
	})
}
