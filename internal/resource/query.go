// Package resource implements the resource hooks: reactive views over one
// paginated backend collection plus its mutations. Every mutation refetches
// instead of patching locally, and responses to superseded fetches are
// discarded.
package resource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/api"
	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/metrics"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/notify"
	"github.com/p-blackswan/taskhub/internal/session"
)

// Default page sizes per resource.
const (
	TasksPageSize         = 20
	ProjectsPageSize      = 10
	NotificationsPageSize = 10
	PaymentsPageSize      = 20
	SoftDeletedPageSize   = 10
)

// Filter is the hook configuration. Structural equality decides whether a
// change triggers a fetch.
type Filter = api.ListParams

// FetchFunc loads one page.
type FetchFunc[T any] func(ctx context.Context, f Filter) (*models.Page[T], error)

// Endpoints are the two variants a hook chooses between. Mine may be nil when
// the resource has a single endpoint.
type Endpoints[T any] struct {
	All  FetchFunc[T]
	Mine FetchFunc[T]
}

// Deps are the collaborators every hook shares.
type Deps struct {
	Notifier notify.Notifier
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// State is the reactive view of a hook. Exactly one of Items or Err is
// authoritative once Loading is false; Items is empty whenever Err is set.
type State[T any] struct {
	Items      []T
	Pagination *Pagination
	Loading    bool
	Err        error
	Error      string
	Loaded     bool
	Filter     Filter
}

// Query is the generic resource hook.
type Query[T any] struct {
	name           string
	fetcher        FetchFunc[T]
	strategy       session.Strategy
	pageSize       int
	failureMessage string
	toastForbidden bool
	notifier       notify.Notifier
	metrics        *metrics.Metrics
	logger         zerolog.Logger

	mu         sync.Mutex
	filter     Filter
	mounted    bool
	generation uint64
	version    uint64
	state      State[T]
	published  uint64
	subs       map[int]func(State[T])
	nextSub    int
}

// NewQuery builds a hook. The endpoint variant is picked once from strategy:
// Elevated calls All with the full filter, Standard calls Mine with page and
// size only.
func NewQuery[T any](name string, ep Endpoints[T], strategy session.Strategy, pageSize int, filter Filter, deps Deps) *Query[T] {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	q := &Query[T]{
		name:           name,
		fetcher:        selectEndpoint(ep, strategy),
		strategy:       strategy,
		pageSize:       pageSize,
		failureMessage: "Failed to fetch " + name,
		notifier:       deps.Notifier,
		metrics:        deps.Metrics,
		logger:         deps.Logger.With().Str("component", "resource").Str("resource", name).Logger(),
		subs:           make(map[int]func(State[T])),
	}
	q.filter = q.withDefaults(filter)
	q.state.Filter = q.filter
	return q
}

func selectEndpoint[T any](ep Endpoints[T], strategy session.Strategy) FetchFunc[T] {
	if strategy == session.Elevated || ep.Mine == nil {
		return ep.All
	}
	mine := ep.Mine
	return func(ctx context.Context, f Filter) (*models.Page[T], error) {
		return mine(ctx, f.PageOnly())
	}
}

func (q *Query[T]) withDefaults(f Filter) Filter {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = q.pageSize
	}
	return f
}

// Name returns the resource name.
func (q *Query[T]) Name() string { return q.name }

// Strategy returns the strategy the hook was built with.
func (q *Query[T]) Strategy() session.Strategy { return q.strategy }

// Filter returns the current (defaulted) filter.
func (q *Query[T]) Filter() Filter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.filter
}

// State returns a snapshot of the current state.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Mount performs the initial fetch.
func (q *Query[T]) Mount(ctx context.Context) {
	q.mu.Lock()
	q.mounted = true
	q.mu.Unlock()
	q.fetch(ctx)
}

// SetFilter changes the configuration. It fetches only when the hook is
// mounted and the defaulted filter differs from the current one, and reports
// whether a fetch happened.
func (q *Query[T]) SetFilter(ctx context.Context, f Filter) bool {
	f = q.withDefaults(f)
	q.mu.Lock()
	if f == q.filter {
		q.mu.Unlock()
		return false
	}
	q.filter = f
	mounted := q.mounted
	q.mu.Unlock()

	if !mounted {
		return false
	}
	q.fetch(ctx)
	return true
}

// SetPage moves to another page keeping the rest of the filter.
func (q *Query[T]) SetPage(ctx context.Context, page int) bool {
	f := q.Filter()
	f.Page = page
	return q.SetFilter(ctx, f)
}

// Refetch reloads the current page. Failures land in State, never here.
func (q *Query[T]) Refetch(ctx context.Context) {
	q.fetch(ctx)
}

// Subscribe registers fn for every state change and immediately delivers the
// current state. The returned func unregisters it.
func (q *Query[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	snap := q.snapshotLocked()
	q.mu.Unlock()

	fn(snap)
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

func (q *Query[T]) fetch(ctx context.Context) {
	q.mu.Lock()
	q.generation++
	gen := q.generation
	f := q.filter
	q.state.Loading = true
	q.state.Err = nil
	q.state.Error = ""
	q.state.Filter = f
	q.version++
	snap, ver := q.snapshotLocked(), q.version
	q.mu.Unlock()
	q.publish(snap, ver)

	page, err := q.fetcher(ctx, f)
	if apierr.IsMalformed(err) {
		q.logger.Warn().Err(err).Msg("undecodable response body, treating as empty")
		page, err = nil, nil
	}

	q.mu.Lock()
	if gen != q.generation {
		q.mu.Unlock()
		q.metrics.RecordSuperseded(q.name)
		q.logger.Debug().Uint64("generation", gen).Msg("discarding superseded response")
		return
	}
	q.state.Loading = false
	if err != nil {
		q.state.Items = []T{}
		q.state.Pagination = nil
		q.state.Err = err
		q.state.Error = apierr.Message(err, q.failureMessage)
	} else {
		c := NewCollection(page)
		q.state.Items = c.Items
		q.state.Pagination = c.Pagination
		q.state.Loaded = true
	}
	q.version++
	snap, ver = q.snapshotLocked(), q.version
	q.mu.Unlock()
	q.publish(snap, ver)

	if err != nil {
		q.reportFetchError(err, snap.Error)
	}
}

// reportFetchError suppresses the toast for 401, which the HTTP client already
// handled globally, and for the authorization-denied class unless the hook
// surfaces it.
func (q *Query[T]) reportFetchError(err error, msg string) {
	log := q.logger.Warn().Err(err).Str("strategy", q.strategy.String())
	switch {
	case apierr.IsSessionExpired(err):
		log.Msg("fetch rejected, session expired")
	case !q.toastForbidden && apierr.IsForbidden(err):
		log.Msg("fetch forbidden, notification suppressed")
	default:
		log.Msg("fetch failed")
		q.notifier.Error(msg)
	}
}

// mutate runs a remote write, notifies, and on success refetches the
// collection. Failures are notified and returned so callers can keep their
// form open.
func (q *Query[T]) mutate(ctx context.Context, success, failure string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		if !apierr.IsSessionExpired(err) {
			q.notifier.Error(apierr.Message(err, failure))
		}
		q.logger.Warn().Err(err).Msg(strings.ToLower(failure))
		return fmt.Errorf("%s: %w", strings.ToLower(failure), err)
	}
	q.notifier.Success(success)
	q.fetch(ctx)
	return nil
}

func (q *Query[T]) snapshotLocked() State[T] {
	s := q.state
	s.Items = append([]T(nil), q.state.Items...)
	if q.state.Items != nil && s.Items == nil {
		s.Items = []T{}
	}
	if q.state.Pagination != nil {
		p := *q.state.Pagination
		s.Pagination = &p
	}
	return s
}

// publish delivers s unless a newer state was already delivered. Subscribers
// run without locks held and may call back into the hook.
func (q *Query[T]) publish(s State[T], version uint64) {
	q.mu.Lock()
	if version <= q.published {
		q.mu.Unlock()
		return
	}
	q.published = version
	subs := make([]func(State[T]), 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	q.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
