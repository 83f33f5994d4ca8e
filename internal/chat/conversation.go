package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/notify"
)

// Transport is the part of Manager used by rooms and the inbox.
type Transport interface {
	SendMessage(models.ChatMessage) error
	OnMessage(Handler) (unregister func())
}

// Identity is the signed-in user as seen by chat views.
type Identity interface {
	User() *models.User
}

// timestampLayout matches the millisecond UTC form the backend emits.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Conversation is an ordered in-memory message sequence.
type Conversation struct {
	mu   sync.Mutex
	msgs []models.ChatMessage
}

// Append adds msg at the end.
func (c *Conversation) Append(msg models.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Replace swaps the whole sequence.
func (c *Conversation) Replace(msgs []models.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append([]models.ChatMessage(nil), msgs...)
}

// Messages returns a copy of the sequence.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage{}, c.msgs...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

// Clear empties the sequence.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

// ProjectRoom collects real-time messages for one project, or every message
// when ProjectID is zero.
type ProjectRoom struct {
	Conversation

	projectID  int64
	transport  Transport
	self       Identity
	now        func() time.Time
	unregister func()
}

// NewProjectRoom registers a room on transport.
func NewProjectRoom(t Transport, self Identity, projectID int64) *ProjectRoom {
	r := &ProjectRoom{projectID: projectID, transport: t, self: self, now: time.Now}
	r.unregister = t.OnMessage(r.receive)
	return r
}

func (r *ProjectRoom) receive(msg models.ChatMessage) {
	if r.projectID == 0 || msg.ProjectID == r.projectID {
		r.Append(msg)
	}
}

// ProjectID returns the room scope; zero means unscoped.
func (r *ProjectRoom) ProjectID() int64 { return r.projectID }

// Send publishes content stamped with the signed-in sender and current time.
func (r *ProjectRoom) Send(content string) error {
	user := r.self.User()
	if user == nil {
		return apierr.ErrNotAuthenticated
	}
	return r.transport.SendMessage(models.ChatMessage{
		SenderID:       user.ID,
		SenderUsername: user.Username,
		Content:        content,
		ProjectID:      r.projectID,
		Timestamp:      r.now().UTC().Format(timestampLayout),
	})
}

// Close stops receiving messages.
func (r *ProjectRoom) Close() { r.unregister() }

// HistoryAPI loads private chat history over REST.
type HistoryAPI interface {
	PrivateHistory(ctx context.Context, otherUserID int64, page int) ([]models.ChatMessage, error)
}

// PrivateChat is a one-to-one conversation seeded from REST history and kept
// current by the real-time transport.
type PrivateChat struct {
	Conversation

	history    HistoryAPI
	transport  Transport
	self       Identity
	notifier   notify.Notifier
	logger     zerolog.Logger
	now        func() time.Time
	unregister func()

	mu      sync.Mutex
	peer    int64
	loading bool
}

// NewPrivateChat registers a private chat view on transport.
func NewPrivateChat(h HistoryAPI, t Transport, self Identity, n notify.Notifier, logger zerolog.Logger) *PrivateChat {
	if n == nil {
		n = notify.Discard
	}
	p := &PrivateChat{
		history:   h,
		transport: t,
		self:      self,
		notifier:  n,
		logger:    logger.With().Str("component", "chat").Str("view", "private").Logger(),
		now:       time.Now,
	}
	p.unregister = t.OnMessage(p.receive)
	return p
}

// LoadMessages replaces the sequence with the history shared with
// otherUserID. On failure the sequence is cleared and an error toast shown.
func (p *PrivateChat) LoadMessages(ctx context.Context, otherUserID int64) error {
	p.mu.Lock()
	p.peer = otherUserID
	p.loading = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		p.mu.Unlock()
	}()

	msgs, err := p.history.PrivateHistory(ctx, otherUserID, 0)
	if err != nil {
		p.logger.Error().Err(err).Int64("peer", otherUserID).Msg("failed to load chat history")
		p.notifier.Error("Failed to load chat history")
		p.Clear()
		return err
	}
	p.Replace(msgs)
	return nil
}

// Loading reports whether a history load is in flight.
func (p *PrivateChat) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Peer returns the other participant, zero before the first load.
func (p *PrivateChat) Peer() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peer
}

func (p *PrivateChat) receive(msg models.ChatMessage) {
	peer := p.Peer()
	user := p.self.User()
	if peer == 0 || user == nil {
		return
	}
	if msg.Between(user.ID, peer) {
		p.Append(msg)
	}
}

// Send publishes content addressed to the current peer.
func (p *PrivateChat) Send(content string) error {
	user := p.self.User()
	if user == nil {
		return apierr.ErrNotAuthenticated
	}
	peer := p.Peer()
	if peer == 0 {
		return apierr.ErrInvalidInput
	}
	return p.transport.SendMessage(models.ChatMessage{
		SenderID:       user.ID,
		SenderUsername: user.Username,
		Content:        content,
		ReceiverID:     peer,
		Timestamp:      p.now().UTC().Format(timestampLayout),
	})
}

// Close stops receiving messages.
func (p *PrivateChat) Close() { p.unregister() }

// NotifyStatus returns a listener that toasts connection outcomes.
func NotifyStatus(n notify.Notifier) StatusListener {
	return func(s Status, err error) {
		switch {
		case s == Connected:
			n.Success("Connected to chat")
		case s == Disconnected && err != nil:
			n.Error("Chat connection error: " + apierr.Message(err, apierr.NetworkMessage))
		}
	}
}
