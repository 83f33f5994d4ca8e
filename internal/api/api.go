// Package api holds the typed service adapters for the taskhub backend. Every
// adapter issues its calls through a Doer, normally *httpclient.Client.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Doer executes one REST call. *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// ListParams is the filter and pagination set a list endpoint accepts. It is
// comparable so callers can use == as a change key.
type ListParams struct {
	Page       int
	Size       int
	Status     string
	Priority   string
	Sort       string
	Search     string
	Scope      string
	ProjectID  int64
	OwnerID    int64
	AssigneeID int64
}

// PageOnly drops every field except Page and Size.
func (p ListParams) PageOnly() ListParams {
	return ListParams{Page: p.Page, Size: p.Size}
}

// Values encodes the params. Page is always sent, Size when positive, the
// rest only when set. A status of "all" means no status filter.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if p.Status != "all" {
		setString(v, "status", p.Status)
	}
	setString(v, "priority", p.Priority)
	setString(v, "sort", p.Sort)
	setString(v, "search", p.Search)
	setString(v, "scope", p.Scope)
	setID(v, "projectId", p.ProjectID)
	setID(v, "ownerId", p.OwnerID)
	setID(v, "assigneeId", p.AssigneeID)
	return v
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setID(v url.Values, key string, id int64) {
	if id != 0 {
		v.Set(key, strconv.FormatInt(id, 10))
	}
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func get(ctx context.Context, d Doer, path string, query url.Values, out any) error {
	return d.Do(ctx, http.MethodGet, path, query, nil, out)
}

func post(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, http.MethodPost, path, nil, body, out)
}

func put(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, http.MethodPut, path, nil, body, out)
}

func patch(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func del(ctx context.Context, d Doer, path string, out any) error {
	return d.Do(ctx, http.MethodDelete, path, nil, nil, out)
}
