package resource

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/notify"
)

// AnalyticsAPI is the analytics backend.
type AnalyticsAPI interface {
	TasksSummary(ctx context.Context) (*models.TasksSummary, error)
}

// SummaryState is the view of the analytics hook.
type SummaryState struct {
	Summary *models.TasksSummary
	Loading bool
	Err     error
	Error   string
}

// Analytics loads the single-object task summary with the same loading and
// error policy as the list hooks.
type Analytics struct {
	svc      AnalyticsAPI
	notifier notify.Notifier
	logger   zerolog.Logger

	mu         sync.Mutex
	generation uint64
	state      SummaryState
}

// NewAnalytics builds the analytics hook.
func NewAnalytics(svc AnalyticsAPI, deps Deps) *Analytics {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	return &Analytics{
		svc:      svc,
		notifier: deps.Notifier,
		logger:   deps.Logger.With().Str("component", "resource").Str("resource", "analytics").Logger(),
	}
}

// Load fetches the summary.
func (a *Analytics) Load(ctx context.Context) {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	a.state.Loading = true
	a.state.Err, a.state.Error = nil, ""
	a.mu.Unlock()

	summary, err := a.svc.TasksSummary(ctx)
	if apierr.IsMalformed(err) {
		a.logger.Warn().Err(err).Msg("undecodable response body, treating as empty")
		summary, err = nil, nil
	}

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return
	}
	a.state.Loading = false
	if err != nil {
		a.state.Summary = nil
		a.state.Err = err
		a.state.Error = apierr.Message(err, "Failed to fetch analytics")
	} else {
		a.state.Summary = summary
	}
	msg := a.state.Error
	a.mu.Unlock()

	if err != nil && !apierr.IsSessionExpired(err) && !apierr.IsForbidden(err) {
		a.logger.Warn().Err(err).Msg("fetch failed")
		a.notifier.Error(msg)
	}
}

// State returns a snapshot of the current state.
func (a *Analytics) State() SummaryState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}
