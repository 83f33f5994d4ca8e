package api

import "github.com/rs/zerolog"

// Session is what the adapters need from the session context.
type Session interface {
	SessionWriter
	Identity
}

// Services bundles every adapter over one Doer.
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Tasks         *TaskService
	Projects      *ProjectService
	Notifications *NotificationService
	Payments      *PaymentService
	Chat          *ChatService
	Analytics     *AnalyticsService
}

// NewServices wires all adapters.
func NewServices(d Doer, s Session, logger zerolog.Logger) *Services {
	return &Services{
		Auth:          NewAuthService(d, s, logger),
		Users:         NewUserService(d),
		Tasks:         NewTaskService(d),
		Projects:      NewProjectService(d),
		Notifications: NewNotificationService(d, s),
		Payments:      NewPaymentService(d),
		Chat:          NewChatService(d),
		Analytics:     NewAnalyticsService(d),
	}
}
