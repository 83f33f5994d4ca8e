// Package notify renders transient user-facing notifications (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/metrics"
)

// Level of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows transient notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Console prints styled toasts to a writer.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
}

// NewConsole creates a console notifier for the given theme ("light" or "dark").
func NewConsole(w io.Writer, theme string) *Console {
	fgSuccess, fgError := lipgloss.Color("#1e7e34"), lipgloss.Color("#c0392b")
	if theme == "dark" {
		fgSuccess, fgError = lipgloss.Color("#6fcf97"), lipgloss.Color("#ff6b6b")
	}
	return &Console{
		w:       w,
		success: lipgloss.NewStyle().Foreground(fgSuccess).Bold(true),
		failure: lipgloss.NewStyle().Foreground(fgError).Bold(true),
	}
}

func (c *Console) Success(msg string) { c.print(c.success, "✓", msg) }
func (c *Console) Error(msg string)   { c.print(c.failure, "✗", msg) }

func (c *Console) print(style lipgloss.Style, mark, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, style.Render(mark+" "+msg))
}

// Log writes notifications to a zerolog logger.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a logging notifier.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *Log) Success(msg string) { l.logger.Info().Str("level_ui", string(LevelSuccess)).Msg(msg) }
func (l *Log) Error(msg string)   { l.logger.Warn().Str("level_ui", string(LevelError)).Msg(msg) }

// Counted records a metric for every notification before delegating.
type Counted struct {
	next    Notifier
	metrics *metrics.Metrics
}

// WithMetrics wraps n so every notification is counted.
func WithMetrics(n Notifier, m *metrics.Metrics) *Counted {
	return &Counted{next: n, metrics: m}
}

func (c *Counted) Success(msg string) {
	c.metrics.RecordNotification(string(LevelSuccess))
	c.next.Success(msg)
}

func (c *Counted) Error(msg string) {
	c.metrics.RecordNotification(string(LevelError))
	c.next.Error(msg)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Discard drops every notification.
var Discard Notifier = Multi(nil)
