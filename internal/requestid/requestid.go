// Package requestid tags outgoing REST calls with an X-Request-ID. A CLI
// invocation starts one trace; every call made under it is numbered within
// that trace so backend logs can group the calls of one command.
package requestid

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Header carries the request ID to the backend.
const Header = "X-Request-ID"

type ctxKey struct{}

type trace struct {
	id    string
	fixed bool
	seq   atomic.Int64
}

// Start begins a trace and returns the enriched context and trace ID.
func Start(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, ctxKey{}, &trace{id: id}), id
}

// With pins the request ID: every call under ctx sends exactly id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, &trace{id: id, fixed: true})
}

// FromContext returns the trace or pinned ID, or "" when ctx has none.
func FromContext(ctx context.Context) string {
	if t, ok := ctx.Value(ctxKey{}).(*trace); ok {
		return t.id
	}
	return ""
}

// Next returns the ID for the next call under ctx: the pinned ID, the trace ID
// with a sequence suffix, or a fresh UUID outside any trace.
func Next(ctx context.Context) string {
	t, ok := ctx.Value(ctxKey{}).(*trace)
	switch {
	case !ok || t.id == "":
		return uuid.NewString()
	case t.fixed:
		return t.id
	}
	return t.id + "-" + strconv.FormatInt(t.seq.Add(1), 10)
}

// Apply stamps req with the next ID for its context and returns it.
func Apply(req *http.Request) string {
	id := Next(req.Context())
	req.Header.Set(Header, id)
	return id
}
