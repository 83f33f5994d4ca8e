// Package chat owns the single real-time chat transport: STOMP frames over a
// WebSocket, with handler fan-out, heart-beats and automatic reconnection.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/metrics"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/retry"
)

// Status is the connection state of the manager.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config holds chat transport configuration.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://localhost:8080/ws/websocket".
	URL string

	// Topic is the broadcast destination subscribed after CONNECTED.
	Topic string

	// Destination receives outgoing SEND frames.
	Destination string

	// Heartbeat is offered in both directions of the STOMP heart-beat header.
	Heartbeat time.Duration

	// ReconnectDelay is the first wait after the transport drops. Zero
	// disables automatic reconnection.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration

	// HandshakeTimeout bounds the dial and the wait for CONNECTED.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the backend defaults.
func DefaultConfig() Config {
	return Config{
		URL:               "ws://localhost:8080/ws/websocket",
		Topic:             "/topic/messages",
		Destination:       "/app/chat",
		Heartbeat:         4 * time.Second,
		ReconnectDelay:    5 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

const writeTimeout = 10 * time.Second

// errStopped aborts a reconnect attempt that lost the race with Disconnect.
var errStopped = errors.New("chat manager stopped")

// TokenSource supplies the bearer token presented on connect.
type TokenSource interface {
	Token() string
}

// Handler receives each decoded chat message.
type Handler func(models.ChatMessage)

// StatusListener observes state transitions. err is set on failures.
type StatusListener func(Status, error)

type registration[T any] struct {
	id int
	fn T
}

// Manager is the process-wide chat session. Create one per process and share it.
type Manager struct {
	cfg     Config
	tokens  TokenSource
	metrics *metrics.Metrics
	logger  zerolog.Logger
	dialer  websocket.Dialer

	connectMu sync.Mutex // serializes handshakes
	writeMu   sync.Mutex // gorilla allows one concurrent writer

	mu          sync.Mutex
	status      Status
	conn        *websocket.Conn
	done        chan struct{}
	stopped     bool
	cancelRetry context.CancelFunc
	handlers    []registration[Handler]
	listeners   []registration[StatusListener]
	nextID      int

	wg sync.WaitGroup
}

// NewManager creates a disconnected manager.
func NewManager(cfg Config, tokens TokenSource, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Topic == "" {
		cfg.Topic = def.Topic
	}
	if cfg.Destination == "" {
		cfg.Destination = def.Destination
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = cfg.ReconnectDelay
	}
	return &Manager{
		cfg:     cfg,
		tokens:  tokens,
		metrics: m,
		logger:  logger.With().Str("component", "chat").Logger(),
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Subprotocols:     []string{"v12.stomp", "v11.stomp"},
		},
	}
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connected reports whether messages can be sent.
func (m *Manager) Connected() bool { return m.Status() == Connected }

// Connect establishes the transport and subscribes to the broadcast topic.
// It is idempotent: while connected, further calls return nil without opening
// a second transport or subscription.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = false
	m.mu.Unlock()
	return m.connect(ctx)
}

func (m *Manager) connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errStopped
	}
	if m.status == Connected {
		m.mu.Unlock()
		return nil
	}
	m.status = Connecting
	m.mu.Unlock()
	m.emit(Connecting, nil)

	conn, hb, err := m.handshake(ctx)
	if err != nil {
		m.mu.Lock()
		m.status = Disconnected
		m.mu.Unlock()
		m.logger.Error().Err(err).Str("url", m.cfg.URL).Msg("chat connect failed")
		m.emit(Disconnected, err)
		return err
	}

	m.mu.Lock()
	if m.stopped {
		m.status = Disconnected
		m.mu.Unlock()
		conn.Close()
		return errStopped
	}
	done := make(chan struct{})
	m.conn, m.done, m.status = conn, done, Connected
	m.wg.Add(1)
	go m.readLoop(conn, hb.incoming)
	if hb.outgoing > 0 {
		m.wg.Add(1)
		go m.heartbeatLoop(conn, done, hb.outgoing)
	}
	m.mu.Unlock()

	m.metrics.SetChatConnected(true)
	m.logger.Info().Str("url", m.cfg.URL).Str("topic", m.cfg.Topic).Msg("chat connected")
	m.emit(Connected, nil)
	return nil
}

type heartbeat struct {
	outgoing time.Duration
	incoming time.Duration
}

// handshake dials, exchanges CONNECT/CONNECTED and sends the one SUBSCRIBE.
func (m *Manager) handshake(ctx context.Context) (*websocket.Conn, heartbeat, error) {
	token := ""
	if m.tokens != nil {
		token = m.tokens.Token()
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := m.dialer.DialContext(ctx, m.cfg.URL, header)
	if err != nil {
		return nil, heartbeat{}, apierr.NewNetworkError(fmt.Errorf("dial %s: %w", m.cfg.URL, err))
	}

	beat := strconv.FormatInt(m.cfg.Heartbeat.Milliseconds(), 10)
	connect := frame.New(frame.CONNECT,
		"accept-version", "1.1,1.2",
		"host", hostOf(m.cfg.URL),
		"heart-beat", beat+","+beat,
	)
	if token != "" {
		connect.Header.Add("Authorization", "Bearer "+token)
	}
	if err := m.writeFrame(conn, connect); err != nil {
		conn.Close()
		return nil, heartbeat{}, fmt.Errorf("send CONNECT: %w", err)
	}

	deadline := time.Now().Add(m.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	reply, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return nil, heartbeat{}, fmt.Errorf("await CONNECTED: %w", err)
	}
	switch reply.Command {
	case frame.CONNECTED:
	case frame.ERROR:
		conn.Close()
		return nil, heartbeat{}, stompError(reply)
	default:
		conn.Close()
		return nil, heartbeat{}, fmt.Errorf("unexpected %s frame during handshake", reply.Command)
	}
	_ = conn.SetReadDeadline(time.Time{})

	sub := frame.New(frame.SUBSCRIBE,
		"id", "sub-"+uuid.NewString(),
		"destination", m.cfg.Topic,
		"ack", "auto",
	)
	if err := m.writeFrame(conn, sub); err != nil {
		conn.Close()
		return nil, heartbeat{}, fmt.Errorf("send SUBSCRIBE: %w", err)
	}

	return conn, negotiate(m.cfg.Heartbeat, reply.Header.Get("heart-beat")), nil
}

// negotiate applies the STOMP heart-beat rules to our offer and the server's
// "sx,sy" reply. Zero on either side disables that direction.
func negotiate(offer time.Duration, server string) heartbeat {
	sx, sy := parseHeartbeat(server)
	var hb heartbeat
	if offer > 0 && sy > 0 {
		hb.outgoing = max(offer, sy)
	}
	if offer > 0 && sx > 0 {
		hb.incoming = max(offer, sx)
	}
	return hb
}

func parseHeartbeat(v string) (time.Duration, time.Duration) {
	x, y, ok := strings.Cut(v, ",")
	if !ok {
		return 0, 0
	}
	sx, err1 := strconv.Atoi(strings.TrimSpace(x))
	sy, err2 := strconv.Atoi(strings.TrimSpace(y))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return time.Duration(sx) * time.Millisecond, time.Duration(sy) * time.Millisecond
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func stompError(f *frame.Frame) error {
	msg := f.Header.Get("message")
	if msg == "" {
		msg = strings.TrimSpace(string(bytes.TrimRight(f.Body, "\x00")))
	}
	if msg == "" {
		msg = "unknown broker error"
	}
	return fmt.Errorf("stomp error: %s", msg)
}

// decode parses one WebSocket message. A nil frame means a heart-beat.
func decode(data []byte) (*frame.Frame, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return frame.NewReader(bytes.NewReader(data)).Read()
}

func readFrame(conn *websocket.Conn) (*frame.Frame, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		f, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		if f != nil {
			return f, nil
		}
	}
}

func (m *Manager) writeFrame(conn *websocket.Conn, f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}
	return m.writeRaw(conn, buf.Bytes())
}

func (m *Manager) writeRaw(conn *websocket.Conn, data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (m *Manager) readLoop(conn *websocket.Conn, incoming time.Duration) {
	defer m.wg.Done()

	for {
		if incoming > 0 {
			// tolerate one late beat
			_ = conn.SetReadDeadline(time.Now().Add(2 * incoming))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.drop(conn, err)
			return
		}
		f, err := decode(data)
		if err != nil {
			m.logger.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}
		if f == nil {
			continue
		}

		switch f.Command {
		case frame.MESSAGE:
			m.dispatch(f.Body)
		case frame.ERROR:
			m.drop(conn, stompError(f))
			return
		case frame.RECEIPT:
		default:
			m.logger.Debug().Str("command", f.Command).Msg("ignoring frame")
		}
	}
}

func (m *Manager) heartbeatLoop(conn *websocket.Conn, done <-chan struct{}, every time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := m.writeRaw(conn, []byte("\n")); err != nil {
				m.logger.Debug().Err(err).Msg("heart-beat write failed")
				return
			}
		}
	}
}

func (m *Manager) dispatch(body []byte) {
	var msg models.ChatMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		m.logger.Warn().Err(err).Msg("discarding undecodable chat message")
		return
	}
	m.metrics.RecordChatMessage("in")

	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.handlers))
	for _, r := range m.handlers {
		handlers = append(handlers, r.fn)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

// drop tears down conn after a transport failure and schedules reconnection
// unless Disconnect was requested.
func (m *Manager) drop(conn *websocket.Conn, cause error) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	close(m.done)
	m.conn, m.done, m.status = nil, nil, Disconnected

	var retryCtx context.Context
	reconnect := !m.stopped && m.cfg.ReconnectDelay > 0
	if reconnect {
		if m.cancelRetry != nil {
			m.cancelRetry()
		}
		retryCtx, m.cancelRetry = context.WithCancel(context.Background())
		m.wg.Add(1)
	}
	m.mu.Unlock()

	conn.Close()
	m.metrics.SetChatConnected(false)
	m.logger.Warn().Err(cause).Bool("reconnect", reconnect).Msg("chat transport lost")
	m.emit(Disconnected, cause)

	if reconnect {
		go m.reconnect(retryCtx)
	}
}

func (m *Manager) reconnect(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(m.cfg.ReconnectDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}

	cfg := retry.Config{
		BaseDelay: m.cfg.ReconnectDelay,
		MaxDelay:  m.cfg.MaxReconnectDelay,
		Jitter:    true,
		Retryable: func(err error) bool { return !errors.Is(err, errStopped) },
	}
	err := retry.Do(ctx, cfg, m.connect)
	if err != nil && !errors.Is(err, errStopped) && !errors.Is(err, context.Canceled) {
		m.logger.Error().Err(err).Msg("chat reconnection abandoned")
	}
}

// SendMessage publishes msg to the configured destination. While not
// connected the message is dropped and ErrNotConnected returned.
func (m *Manager) SendMessage(msg models.ChatMessage) error {
	m.mu.Lock()
	conn := m.conn
	ready := m.status == Connected && conn != nil
	m.mu.Unlock()

	if !ready {
		m.logger.Error().Str("destination", m.cfg.Destination).Msg("chat not connected, message dropped")
		m.metrics.RecordChatMessage("dropped")
		return apierr.ErrNotConnected
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode chat message: %w", err)
	}
	f := frame.New(frame.SEND,
		"destination", m.cfg.Destination,
		"content-type", "application/json",
	)
	f.Body = body
	if err := m.writeFrame(conn, f); err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	m.metrics.RecordChatMessage("out")
	return nil
}

// OnMessage registers h for every received message. The returned func
// unregisters it. Handlers survive Disconnect.
func (m *Manager) OnMessage(h Handler) (unregister func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.handlers = append(m.handlers, registration[Handler]{id: id, fn: h})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.handlers = without(m.handlers, id)
	}
}

// OnStatus registers l for state transitions.
func (m *Manager) OnStatus(l StatusListener) (unregister func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, registration[StatusListener]{id: id, fn: l})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listeners = without(m.listeners, id)
	}
}

func without[T any](regs []registration[T], id int) []registration[T] {
	out := regs[:0:0]
	for _, r := range regs {
		if r.id != id {
			out = append(out, r)
		}
	}
	return out
}

func (m *Manager) emit(s Status, err error) {
	m.mu.Lock()
	listeners := make([]StatusListener, 0, len(m.listeners))
	for _, r := range m.listeners {
		listeners = append(listeners, r.fn)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(s, err)
	}
}

// Disconnect closes the transport and cancels pending reconnection.
// Registered handlers are kept for the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.stopped = true
	if m.cancelRetry != nil {
		m.cancelRetry()
		m.cancelRetry = nil
	}
	conn, done := m.conn, m.done
	wasUp := m.status != Disconnected
	m.conn, m.done, m.status = nil, nil, Disconnected
	m.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn != nil {
		_ = m.writeFrame(conn, frame.New(frame.DISCONNECT))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
	if wasUp {
		m.metrics.SetChatConnected(false)
		m.logger.Info().Msg("chat disconnected")
		m.emit(Disconnected, nil)
	}
}

// Close disconnects and waits for background goroutines. It must not be
// called from a Handler or StatusListener.
func (m *Manager) Close() {
	m.Disconnect()
	m.wg.Wait()
}
