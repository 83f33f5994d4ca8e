package resource

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

// ProjectAPI is the project backend the hook needs.
type ProjectAPI interface {
	List(ctx context.Context, p Filter) (*models.Page[models.Project], error)
	Mine(ctx context.Context, p Filter) (*models.Page[models.Project], error)
	Create(ctx context.Context, req models.ProjectRequest) (*models.Project, error)
	Update(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	AddMember(ctx context.Context, projectID, userID int64) (*models.Project, error)
	RemoveMember(ctx context.Context, projectID, userID int64) (*models.Project, error)
	ChangeOwner(ctx context.Context, projectID, ownerID int64) (*models.Project, error)
}

// Projects is the project list hook.
type Projects struct {
	*Query[models.Project]
	svc ProjectAPI
}

// NewProjects builds the project hook for the given strategy.
func NewProjects(svc ProjectAPI, strategy session.Strategy, filter Filter, deps Deps) *Projects {
	ep := Endpoints[models.Project]{All: svc.List, Mine: svc.Mine}
	return &Projects{
		Query: NewQuery("projects", ep, strategy, ProjectsPageSize, filter, deps),
		svc:   svc,
	}
}

func (p *Projects) Create(ctx context.Context, req models.ProjectRequest) error {
	return p.mutate(ctx, "Project created successfully", "Failed to create project", func(ctx context.Context) error {
		_, err := p.svc.Create(ctx, req)
		return err
	})
}

func (p *Projects) Update(ctx context.Context, id int64, req models.ProjectRequest) error {
	return p.mutate(ctx, "Project updated successfully", "Failed to update project", func(ctx context.Context) error {
		_, err := p.svc.Update(ctx, id, req)
		return err
	})
}

func (p *Projects) Delete(ctx context.Context, id int64) error {
	return p.mutate(ctx, "Project deleted successfully", "Failed to delete project", func(ctx context.Context) error {
		return p.svc.Delete(ctx, id)
	})
}

func (p *Projects) Restore(ctx context.Context, id int64) error {
	return p.mutate(ctx, "Project restored successfully", "Failed to restore project", func(ctx context.Context) error {
		return p.svc.Restore(ctx, id)
	})
}

func (p *Projects) AddMember(ctx context.Context, projectID, userID int64) error {
	return p.mutate(ctx, "Member added successfully", "Failed to add member", func(ctx context.Context) error {
		_, err := p.svc.AddMember(ctx, projectID, userID)
		return err
	})
}

func (p *Projects) RemoveMember(ctx context.Context, projectID, userID int64) error {
	return p.mutate(ctx, "Member removed successfully", "Failed to remove member", func(ctx context.Context) error {
		_, err := p.svc.RemoveMember(ctx, projectID, userID)
		return err
	})
}

func (p *Projects) ChangeOwner(ctx context.Context, projectID, ownerID int64) error {
	return p.mutate(ctx, "Project owner changed successfully", "Failed to change project owner", func(ctx context.Context) error {
		_, err := p.svc.ChangeOwner(ctx, projectID, ownerID)
		return err
	})
}
