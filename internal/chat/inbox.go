package chat

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/lru"
	"github.com/p-blackswan/taskhub/internal/models"
)

// ProjectKey names the inbox buffer of a project group chat.
func ProjectKey(projectID int64) string { return "project:" + strconv.FormatInt(projectID, 10) }

// PrivateKey names the inbox buffer of a one-to-one chat with userID.
func PrivateKey(userID int64) string { return "user:" + strconv.FormatInt(userID, 10) }

// KeyFor returns the buffer msg belongs to from selfID's point of view.
func KeyFor(msg models.ChatMessage, selfID int64) string {
	switch {
	case msg.ProjectID != 0:
		return ProjectKey(msg.ProjectID)
	case msg.SenderID == selfID:
		return PrivateKey(msg.ReceiverID)
	default:
		return PrivateKey(msg.SenderID)
	}
}

// Inbox routes every real-time message into a per-conversation buffer. Only
// the most recently active conversations are kept.
type Inbox struct {
	self       Identity
	logger     zerolog.Logger
	unregister func()

	mu    sync.Mutex
	convs *lru.Cache[string, *Conversation]
}

// NewInbox creates an inbox holding at most capacity conversations.
func NewInbox(capacity int, self Identity, logger zerolog.Logger) *Inbox {
	return &Inbox{
		self:   self,
		logger: logger.With().Str("component", "chat").Str("view", "inbox").Logger(),
		convs:  lru.New[string, *Conversation](capacity),
	}
}

// Attach subscribes the inbox to t. Calling it again replaces the previous
// subscription.
func (i *Inbox) Attach(t Transport) {
	i.Detach()
	unregister := t.OnMessage(i.Route)
	i.mu.Lock()
	i.unregister = unregister
	i.mu.Unlock()
}

// Detach stops routing messages.
func (i *Inbox) Detach() {
	i.mu.Lock()
	unregister := i.unregister
	i.unregister = nil
	i.mu.Unlock()
	if unregister != nil {
		unregister()
	}
}

// Route appends msg to its conversation buffer, opening it when needed.
func (i *Inbox) Route(msg models.ChatMessage) {
	var selfID int64
	if u := i.self.User(); u != nil {
		selfID = u.ID
	}
	key := KeyFor(msg, selfID)

	i.mu.Lock()
	conv, ok := i.convs.Get(key)
	if !ok {
		conv = &Conversation{}
		if evicted, _, was := i.convs.Put(key, conv); was {
			i.logger.Debug().Str("conversation", evicted).Msg("closed least recent conversation")
		}
	}
	i.mu.Unlock()

	conv.Append(msg)
}

// Conversation returns the buffer for key and marks it recently used.
func (i *Inbox) Conversation(key string) (*Conversation, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.convs.Get(key)
}

// Keys lists open conversations, most recent first.
func (i *Inbox) Keys() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.convs.Keys()
}

// Len returns the number of open conversations.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.convs.Len()
}
