package api

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
)

// ProjectService wraps the /projects endpoints.
type ProjectService struct {
	doer Doer
}

// NewProjectService creates a ProjectService.
func NewProjectService(d Doer) *ProjectService {
	return &ProjectService{doer: d}
}

// List returns projects. The backend honours page, size, sort and ownerId.
func (s *ProjectService) List(ctx context.Context, p ListParams) (*models.Page[models.Project], error) {
	return s.page(ctx, "/projects", ListParams{Page: p.Page, Size: p.Size, Sort: p.Sort, OwnerID: p.OwnerID})
}

// Mine returns the caller's projects. Only page and size are sent.
func (s *ProjectService) Mine(ctx context.Context, p ListParams) (*models.Page[models.Project], error) {
	return s.page(ctx, "/projects/my-projects", p.PageOnly())
}

// SoftDeleted returns trashed projects for p.Scope; an empty scope means "my".
func (s *ProjectService) SoftDeleted(ctx context.Context, p ListParams) (*models.Page[models.Project], error) {
	scope := p.Scope
	if scope == "" {
		scope = "my"
	}
	return s.page(ctx, "/projects/soft-deleted", ListParams{Page: p.Page, Size: p.Size, Scope: scope})
}

// Get fetches one project.
func (s *ProjectService) Get(ctx context.Context, projectID int64) (*models.Project, error) {
	var project models.Project
	if err := get(ctx, s.doer, "/projects/"+id(projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, req models.ProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := post(ctx, s.doer, "/projects/create", req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Update changes the non-zero fields of req.
func (s *ProjectService) Update(ctx context.Context, projectID int64, req models.ProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := put(ctx, s.doer, "/projects/"+id(projectID), req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(ctx context.Context, projectID int64) error {
	return del(ctx, s.doer, "/projects/"+id(projectID), nil)
}

// Restore brings a soft-deleted project back.
func (s *ProjectService) Restore(ctx context.Context, projectID int64) error {
	return put(ctx, s.doer, "/projects/restore/"+id(projectID), nil, nil)
}

// AddMember adds a user to the project.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID int64) (*models.Project, error) {
	var project models.Project
	if err := post(ctx, s.doer, memberPath(projectID, userID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// RemoveMember removes a user from the project.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID int64) (*models.Project, error) {
	var project models.Project
	if err := del(ctx, s.doer, memberPath(projectID, userID), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ChangeOwner transfers ownership.
func (s *ProjectService) ChangeOwner(ctx context.Context, projectID, ownerID int64) (*models.Project, error) {
	var project models.Project
	if err := put(ctx, s.doer, "/projects/"+id(projectID)+"/owner/"+id(ownerID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func memberPath(projectID, userID int64) string {
	return "/projects/" + id(projectID) + "/members/" + id(userID)
}

func (s *ProjectService) page(ctx context.Context, path string, p ListParams) (*models.Page[models.Project], error) {
	var page models.Page[models.Project]
	if err := get(ctx, s.doer, path, p.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
