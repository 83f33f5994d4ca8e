package api

import (
	"context"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/models"
)

// Identity supplies the signed-in user's id; 0 means nobody is signed in.
type Identity interface {
	UserID() int64
}

// NotificationService wraps the per-user notification endpoints.
type NotificationService struct {
	doer Doer
	who  Identity
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(d Doer, who Identity) *NotificationService {
	return &NotificationService{doer: d, who: who}
}

// List returns the current user's notifications.
func (s *NotificationService) List(ctx context.Context, p ListParams) (*models.Page[models.Notification], error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	var page models.Page[models.Notification]
	q := ListParams{Page: p.Page, Size: p.Size, Sort: p.Sort}.Values()
	if err := get(ctx, s.doer, "/notifications/user/"+id(uid), q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID int64) error {
	uid, err := s.userID()
	if err != nil {
		return err
	}
	return post(ctx, s.doer, "/notifications/"+id(notificationID)+"/read/user/"+id(uid), nil, nil)
}

// MarkAllRead marks every notification of the current user read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	uid, err := s.userID()
	if err != nil {
		return err
	}
	return post(ctx, s.doer, "/notifications/read-all/user/"+id(uid), nil, nil)
}

func (s *NotificationService) userID() (int64, error) {
	if s.who == nil {
		return 0, apierr.ErrNotAuthenticated
	}
	uid := s.who.UserID()
	if uid == 0 {
		return 0, apierr.ErrNotAuthenticated
	}
	return uid, nil
}
