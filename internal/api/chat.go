package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/p-blackswan/taskhub/internal/models"
)

// ChatService reads chat history and conversation lists over REST.
type ChatService struct {
	doer Doer
}

// NewChatService creates a ChatService.
func NewChatService(d Doer) *ChatService {
	return &ChatService{doer: d}
}

// PrivateHistory returns the messages exchanged with another user.
func (s *ChatService) PrivateHistory(ctx context.Context, otherUserID int64, page int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	q := url.Values{"page": {strconv.Itoa(page)}}
	if err := get(ctx, s.doer, "/api/chat/private/"+id(otherUserID), q, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ProjectHistory returns a page of a project's group chat.
func (s *ChatService) ProjectHistory(ctx context.Context, projectID int64, page, size int) ([]models.ChatMessage, error) {
	if size <= 0 {
		size = 20
	}
	var msgs []models.ChatMessage
	q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
	if err := get(ctx, s.doer, "/api/chat/project/"+id(projectID), q, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Conversations lists one-to-one conversations.
func (s *ChatService) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := get(ctx, s.doer, "/api/chat/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Members lists users the caller can chat with privately.
func (s *ChatService) Members(ctx context.Context, search string) ([]models.User, error) {
	var q url.Values
	if search != "" {
		q = url.Values{"search": {search}}
	}
	var users []models.User
	if err := get(ctx, s.doer, "/api/chat/members", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ProjectConversations lists the caller's project group chats.
func (s *ChatService) ProjectConversations(ctx context.Context) ([]models.ProjectConversation, error) {
	var convs []models.ProjectConversation
	if err := get(ctx, s.doer, "/api/chat/projects", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
