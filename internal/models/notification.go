package models

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationTaskAssigned     NotificationType = "TASK_ASSIGNED"
	NotificationTaskUpdated      NotificationType = "TASK_UPDATED"
	NotificationProjectUpdated   NotificationType = "PROJECT_UPDATED"
	NotificationDeadlineReminder NotificationType = "DEADLINE_REMINDER"
	NotificationPaymentReceived  NotificationType = "PAYMENT_RECEIVED"
)

// NotificationStatus tracks delivery and read state.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationRead    NotificationStatus = "READ"
)

// Notification is a notification addressed to one user.
type Notification struct {
	ID          int64              `json:"id"`
	RecipientID int64              `json:"recipientId"`
	Message     string             `json:"message"`
	Type        NotificationType   `json:"type"`
	Status      NotificationStatus `json:"status"`
	CreatedAt   string             `json:"createdAt,omitempty"`
	SentAt      string             `json:"sentAt,omitempty"`
}

// Unread reports whether the notification has not been read yet.
func (n Notification) Unread() bool {
	return n.Status == NotificationPending || n.Status == NotificationSent
}
