package models

// ChatMessage is a chat message as broadcast on the real-time topic or loaded
// from REST history. Exactly one of ProjectID or ReceiverID targets it.
type ChatMessage struct {
	ID             int64  `json:"id,omitempty"`
	SenderID       int64  `json:"senderId"`
	SenderUsername string `json:"senderUsername,omitempty"`
	Content        string `json:"content"`
	ProjectID      int64  `json:"projectId,omitempty"`
	ReceiverID     int64  `json:"receiverId,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// Between reports whether the message was exchanged by the two users.
func (m ChatMessage) Between(a, b int64) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Conversation summarizes a one-to-one conversation.
type Conversation struct {
	UserID          int64  `json:"userId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	LastMessage     string `json:"lastMessage,omitempty"`
	LastMessageTime string `json:"lastMessageTime,omitempty"`
	Online          bool   `json:"online,omitempty"`
}

// ProjectConversation summarizes a project group chat.
type ProjectConversation struct {
	ProjectID       int64  `json:"projectId"`
	ProjectName     string `json:"projectName"`
	MemberCount     int    `json:"memberCount"`
	LastMessage     string `json:"lastMessage,omitempty"`
	LastMessageTime string `json:"lastMessageTime,omitempty"`
}
