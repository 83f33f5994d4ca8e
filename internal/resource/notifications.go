package resource

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

// NotificationAPI is the notification backend the hook needs.
type NotificationAPI interface {
	List(ctx context.Context, p Filter) (*models.Page[models.Notification], error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

// Notifications is the notification list hook. The backend scopes it to the
// signed-in user, so both strategies call the same endpoint.
type Notifications struct {
	*Query[models.Notification]
	svc NotificationAPI
}

// NewNotifications builds the notification hook. There is no unfiltered
// variant to fall back from, so a denied fetch is toasted like any other.
func NewNotifications(svc NotificationAPI, strategy session.Strategy, filter Filter, deps Deps) *Notifications {
	ep := Endpoints[models.Notification]{All: svc.List}
	q := NewQuery("notifications", ep, strategy, NotificationsPageSize, filter, deps)
	q.toastForbidden = true
	return &Notifications{Query: q, svc: svc}
}

// MarkRead marks one notification read and refetches.
func (n *Notifications) MarkRead(ctx context.Context, id int64) error {
	return n.mutate(ctx, "Notification marked as read", "Failed to mark notification as read", func(ctx context.Context) error {
		return n.svc.MarkRead(ctx, id)
	})
}

// MarkAllRead marks everything read and refetches.
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	return n.mutate(ctx, "All notifications marked as read", "Failed to mark all notifications as read", func(ctx context.Context) error {
		return n.svc.MarkAllRead(ctx)
	})
}

// UnreadCount counts unread notifications on the loaded page.
func (n *Notifications) UnreadCount() int {
	count := 0
	for _, item := range n.State().Items {
		if item.Unread() {
			count++
		}
	}
	return count
}
