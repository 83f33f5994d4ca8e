package api

import (
	"context"
	"net/url"

	"github.com/p-blackswan/taskhub/internal/models"
)

// UserService reads user profiles.
type UserService struct {
	doer Doer
}

// NewUserService creates a UserService.
func NewUserService(d Doer) *UserService {
	return &UserService{doer: d}
}

// List returns a page of users (admin only).
func (s *UserService) List(ctx context.Context, p ListParams) (*models.Page[models.User], error) {
	var page models.Page[models.User]
	if err := get(ctx, s.doer, "/users", p.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search returns up to ten users whose username matches term.
func (s *UserService) Search(ctx context.Context, term string) ([]models.User, error) {
	var page models.Page[models.User]
	q := url.Values{"search": {term}, "size": {"10"}}
	if err := get(ctx, s.doer, "/users", q, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := get(ctx, s.doer, "/users/"+id(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ByUsername fetches a user by username.
func (s *UserService) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := get(ctx, s.doer, "/users/username/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
