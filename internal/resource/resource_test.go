package resource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/taskhub/internal/api"
	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/httpclient"
	"github.com/p-blackswan/taskhub/internal/metrics"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/notify"
	"github.com/p-blackswan/taskhub/internal/session"
)

type fetchCall struct {
	Endpoint string
	Filter   Filter
}

// fakeTasks serves pages from respond and records which endpoint was hit.
type fakeTasks struct {
	mu        sync.Mutex
	calls     []fetchCall
	respond   func(f Filter) (*models.Page[models.Task], error)
	mutateErr error
	mutations []string
}

func (f *fakeTasks) record(endpoint string, p Filter) (*models.Page[models.Task], error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{Endpoint: endpoint, Filter: p})
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return taskPage(1, 1, 20, 0), nil
	}
	return respond(p)
}

func (f *fakeTasks) List(_ context.Context, p Filter) (*models.Page[models.Task], error) {
	return f.record("all", p)
}

func (f *fakeTasks) Mine(_ context.Context, p Filter) (*models.Page[models.Task], error) {
	return f.record("mine", p)
}

func (f *fakeTasks) mutate(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, op)
	return f.mutateErr
}

func (f *fakeTasks) Create(context.Context, models.TaskRequest) (*models.Task, error) {
	return &models.Task{}, f.mutate("create")
}

func (f *fakeTasks) Update(context.Context, int64, models.TaskRequest) (*models.Task, error) {
	return &models.Task{}, f.mutate("update")
}

func (f *fakeTasks) UpdateStatus(context.Context, int64, models.TaskStatus) (*models.Task, error) {
	return &models.Task{}, f.mutate("status")
}

func (f *fakeTasks) Delete(context.Context, int64) error { return f.mutate("delete") }

func (f *fakeTasks) SoftDeleted(_ context.Context, p Filter) (*models.Page[models.Task], error) {
	return f.record("trash", p)
}

func (f *fakeTasks) Restore(context.Context, int64) error { return f.mutate("restore") }

func (f *fakeTasks) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

func taskPage(n, totalPages, size, number int) *models.Page[models.Task] {
	items := make([]models.Task, n)
	for i := range items {
		items[i] = models.Task{ID: int64(i + 1), Title: "task"}
	}
	return &models.Page[models.Task]{
		Content: items, TotalElements: n, TotalPages: totalPages, Size: size, Number: number,
		First: number == 0, Last: number == totalPages-1,
	}
}

func testDeps(rec *notify.Recorder, m *metrics.Metrics) Deps {
	return Deps{Notifier: rec, Logger: zerolog.Nop(), Metrics: m}
}

func TestNewCollection(t *testing.T) {
	t.Run("nil page", func(t *testing.T) {
		c := NewCollection[models.Task](nil)
		assert.Empty(t, c.Items)
		assert.Nil(t, c.Pagination)
	})

	t.Run("absent content", func(t *testing.T) {
		c := NewCollection(&models.Page[models.Task]{TotalPages: 2, Size: 10})
		assert.NotNil(t, c.Items)
		assert.Empty(t, c.Items)
		assert.Nil(t, c.Pagination)
	})

	t.Run("first page of 45", func(t *testing.T) {
		page := taskPage(20, 3, 20, 0)
		page.TotalElements = 45
		c := NewCollection(page)
		assert.Len(t, c.Items, 20)
		want := &Pagination{TotalItems: 45, TotalPages: 3, PageSize: 20, PageIndex: 0, First: true, Last: false}
		if diff := cmp.Diff(want, c.Pagination); diff != "" {
			t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("oversized and out of range", func(t *testing.T) {
		c := NewCollection(taskPage(25, 3, 20, 7))
		assert.Len(t, c.Items, 20)
		assert.Equal(t, 2, c.Pagination.PageIndex)

		c = NewCollection(taskPage(5, 3, 20, -4))
		assert.Equal(t, 0, c.Pagination.PageIndex)
	})

	t.Run("zero size keeps items", func(t *testing.T) {
		c := NewCollection(taskPage(4, 1, 0, 0))
		assert.Len(t, c.Items, 4)
		assert.Equal(t, 4, c.Pagination.PageSize)
	})
}

func TestQuery_PaginationBound(t *testing.T) {
	for _, tc := range []struct{ n, pages, size, number int }{
		{20, 3, 20, 0}, {30, 3, 20, 9}, {0, 0, 20, 0}, {7, 1, 5, 1},
	} {
		fake := &fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) {
			return taskPage(tc.n, tc.pages, tc.size, tc.number), nil
		}}
		hook := NewTasks(fake, session.Elevated, Filter{}, testDeps(&notify.Recorder{}, nil))
		hook.Mount(context.Background())

		st := hook.State()
		require.NotNil(t, st.Pagination)
		assert.LessOrEqual(t, len(st.Items), st.Pagination.PageSize)
		if st.Pagination.TotalPages > 0 {
			assert.GreaterOrEqual(t, st.Pagination.PageIndex, 0)
			assert.Less(t, st.Pagination.PageIndex, st.Pagination.TotalPages)
		}
	}
}

func TestQuery_RoleBranching(t *testing.T) {
	filter := Filter{Page: 1, Size: 5, Status: "TODO", Priority: "HIGH", ProjectID: 3, OwnerID: 7, Search: "x"}

	standard := &fakeTasks{}
	NewTasks(standard, session.Standard, filter, testDeps(&notify.Recorder{}, nil)).Mount(context.Background())
	assert.Equal(t, []fetchCall{{Endpoint: "mine", Filter: Filter{Page: 1, Size: 5}}}, standard.Calls())

	elevated := &fakeTasks{}
	NewTasks(elevated, session.Elevated, filter, testDeps(&notify.Recorder{}, nil)).Mount(context.Background())
	assert.Equal(t, []fetchCall{{Endpoint: "all", Filter: filter}}, elevated.Calls())
}

func TestQuery_StandardProjectsOverHTTP(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`{"code":1000,"result":{"content":[{"id":1,"name":"mine","ownerId":3}],"totalElements":1,"totalPages":1,"size":10,"number":0}}`))
	}))
	defer server.Close()

	client := httpclient.New(server.URL, nil, 0, nil, zerolog.Nop())
	hook := NewProjects(api.NewProjectService(client), session.Standard, Filter{OwnerID: 7}, testDeps(&notify.Recorder{}, nil))
	hook.Mount(context.Background())

	require.Len(t, got, 1)
	q, err := url.ParseQuery(got[0][len("/projects/my-projects?"):])
	require.NoError(t, err)
	assert.Equal(t, "/projects/my-projects?", got[0][:len("/projects/my-projects?")])
	assert.Equal(t, url.Values{"page": {"0"}, "size": {"10"}}, q)
	assert.Equal(t, "mine", hook.State().Items[0].Name)
}

func TestQuery_ErrorClearsItems(t *testing.T) {
	fail := false
	fake := &fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) {
		if fail {
			return nil, apierr.NewAPIError(500, "database down")
		}
		return taskPage(3, 1, 20, 0), nil
	}}
	rec := &notify.Recorder{}
	hook := NewTasks(fake, session.Elevated, Filter{}, testDeps(rec, nil))

	hook.Mount(context.Background())
	require.Len(t, hook.State().Items, 3)

	fail = true
	hook.Refetch(context.Background())

	st := hook.State()
	assert.Empty(t, st.Items)
	assert.Nil(t, st.Pagination)
	assert.False(t, st.Loading)
	assert.Equal(t, "database down", st.Error)
	assert.Equal(t, 500, apierr.StatusCode(st.Err))
	assert.Equal(t, []string{"database down"}, rec.Errors())
}

func TestQuery_ErrorNotificationPolicy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		toasts int
	}{
		{name: "forbidden", err: apierr.NewAPIError(403, "Access denied"), toasts: 0},
		{name: "permission message", err: apierr.NewAPIError(400, "You do not have permission"), toasts: 0},
		{name: "session expired", err: apierr.NewAPIError(401, "Unauthenticated"), toasts: 0},
		{name: "network", err: apierr.NewNetworkError(errors.New("refused")), toasts: 1},
		{name: "not found", err: apierr.NewAPIError(404, "missing"), toasts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) { return nil, tt.err }}
			rec := &notify.Recorder{}
			hook := NewTasks(fake, session.Elevated, Filter{Status: "DONE"}, testDeps(rec, nil))
			hook.Mount(context.Background())

			assert.Len(t, rec.Errors(), tt.toasts)
			assert.Error(t, hook.State().Err)
			assert.Empty(t, hook.State().Items)
		})
	}
}

func TestQuery_MalformedResponseIsEmpty(t *testing.T) {
	fake := &fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) { return nil, nil }}
	rec := &notify.Recorder{}
	hook := NewTasks(fake, session.Elevated, Filter{}, testDeps(rec, nil))
	hook.Mount(context.Background())

	st := hook.State()
	assert.NoError(t, st.Err)
	assert.Empty(t, st.Items)
	assert.True(t, st.Loaded)
	assert.Empty(t, rec.Entries())
}

func TestQuery_UndecodableBodyOverHTTPIsEmpty(t *testing.T) {
	for _, tc := range []struct{ name, body string }{
		{name: "html", body: `<html>maintenance</html>`},
		{name: "wrong content shape", body: `{"content":{"x":1}}`},
		{name: "truncated", body: `{"content":[`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			rec := &notify.Recorder{}
			client := httpclient.New(server.URL, nil, 0, nil, zerolog.Nop())
			hook := NewTasks(api.NewTaskService(client), session.Elevated, Filter{}, testDeps(rec, nil))
			hook.Mount(context.Background())

			st := hook.State()
			assert.NoError(t, st.Err)
			assert.Empty(t, st.Error)
			assert.NotNil(t, st.Items)
			assert.Empty(t, st.Items)
			assert.Nil(t, st.Pagination)
			assert.False(t, st.Loading)
			assert.Empty(t, rec.Entries())
		})
	}
}

func TestAnalytics_UndecodableBodyOverHTTPIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	rec := &notify.Recorder{}
	client := httpclient.New(server.URL, nil, 0, nil, zerolog.Nop())
	hook := NewAnalytics(api.NewAnalyticsService(client), testDeps(rec, nil))
	hook.Load(context.Background())

	st := hook.State()
	assert.NoError(t, st.Err)
	assert.Nil(t, st.Summary)
	assert.Empty(t, rec.Entries())
}

func TestQuery_SetFilterStructuralEquality(t *testing.T) {
	fake := &fakeTasks{}
	hook := NewTasks(fake, session.Elevated, Filter{Status: "TODO"}, testDeps(&notify.Recorder{}, nil))
	ctx := context.Background()

	assert.False(t, hook.SetFilter(ctx, Filter{Status: "DONE"}), "no fetch before mount")
	hook.Mount(ctx)
	require.Len(t, fake.Calls(), 1)

	assert.False(t, hook.SetFilter(ctx, Filter{Status: "DONE", Size: TasksPageSize}))
	assert.False(t, hook.SetFilter(ctx, Filter{Status: "DONE"}))
	assert.Len(t, fake.Calls(), 1)

	assert.True(t, hook.SetPage(ctx, 2))
	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, Filter{Page: 2, Size: TasksPageSize, Status: "DONE"}, calls[1].Filter)
}

func TestQuery_DiscardsSupersededResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	fake := &fakeTasks{respond: func(f Filter) (*models.Page[models.Task], error) {
		started <- struct{}{}
		if f.Status == "SLOW" {
			<-release
			return taskPage(9, 1, 20, 0), nil
		}
		return taskPage(2, 1, 20, 0), nil
	}}
	m := metrics.New()
	hook := NewTasks(fake, session.Elevated, Filter{Status: "SLOW"}, testDeps(&notify.Recorder{}, m))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		hook.Mount(ctx)
		close(done)
	}()
	<-started

	hook.SetFilter(ctx, Filter{Status: "FAST"})
	close(release)
	<-done

	st := hook.State()
	assert.Len(t, st.Items, 2)
	assert.False(t, st.Loading)
	assert.Equal(t, "FAST", st.Filter.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchSuperseded.WithLabelValues("tasks")))
}

func TestQuery_MutateThenRefetch(t *testing.T) {
	var mu sync.Mutex
	fetches := 0
	fake := &fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) {
		mu.Lock()
		defer mu.Unlock()
		fetches++
		return taskPage(fetches, 1, 20, 0), nil
	}}
	rec := &notify.Recorder{}
	hook := NewTasks(fake, session.Standard, Filter{}, testDeps(rec, nil))
	ctx := context.Background()
	hook.Mount(ctx)
	require.Len(t, hook.State().Items, 1)

	require.NoError(t, hook.Create(ctx, models.TaskRequest{Title: "t"}))
	assert.Len(t, hook.State().Items, 2)
	require.NoError(t, hook.Update(ctx, 1, models.TaskRequest{Title: "u"}))
	require.NoError(t, hook.UpdateStatus(ctx, 1, models.TaskDone))
	require.NoError(t, hook.Delete(ctx, 1))
	assert.Len(t, hook.State().Items, 5)

	assert.Equal(t, []string{
		"Task created successfully", "Task updated successfully",
		"Task status updated successfully", "Task deleted successfully",
	}, rec.Successes())
	assert.Equal(t, []string{"create", "update", "status", "delete"}, fake.mutations)
}

func TestQuery_MutateFailureNotifiesAndReturns(t *testing.T) {
	fake := &fakeTasks{mutateErr: apierr.NewAPIError(400, "Title is required")}
	rec := &notify.Recorder{}
	hook := NewTasks(fake, session.Elevated, Filter{}, testDeps(rec, nil))
	ctx := context.Background()
	hook.Mount(ctx)

	err := hook.Create(ctx, models.TaskRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrInvalidInput)
	assert.Equal(t, []string{"Title is required"}, rec.Errors())
	assert.Len(t, fake.Calls(), 1, "failed mutation must not refetch")
}

func TestQuery_Subscribe(t *testing.T) {
	fake := &fakeTasks{}
	hook := NewTasks(fake, session.Elevated, Filter{}, testDeps(&notify.Recorder{}, nil))

	var states []State[models.Task]
	unsubscribe := hook.Subscribe(func(s State[models.Task]) { states = append(states, s) })
	hook.Mount(context.Background())

	require.Len(t, states, 3)
	assert.False(t, states[0].Loading)
	assert.True(t, states[1].Loading)
	assert.False(t, states[2].Loading)
	assert.Len(t, states[2].Items, 1)

	unsubscribe()
	hook.Refetch(context.Background())
	assert.Len(t, states, 3)
}

func TestSoftDeleted_ScopeAndRestore(t *testing.T) {
	ctx := context.Background()

	standard := &fakeTasks{}
	trash := NewSoftDeletedTasks(standard, session.Standard, Filter{Status: "TODO"}, testDeps(&notify.Recorder{}, nil))
	assert.Equal(t, "my", trash.Scope())
	trash.Mount(ctx)
	assert.Equal(t, Filter{Page: 0, Size: SoftDeletedPageSize, Scope: "my"}, standard.Calls()[0].Filter)

	rec := &notify.Recorder{}
	elevated := &fakeTasks{}
	adminTrash := NewSoftDeletedTasks(elevated, session.Elevated, Filter{}, testDeps(rec, nil))
	adminTrash.Mount(ctx)
	require.NoError(t, adminTrash.Restore(ctx, 4))

	calls := elevated.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "all", calls[1].Filter.Scope)
	assert.Equal(t, []string{"Task restored successfully"}, rec.Successes())
}

type fakeNotifications struct {
	items   []models.Notification
	read    []int64
	listErr error
}

func (f *fakeNotifications) List(context.Context, Filter) (*models.Page[models.Notification], error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &models.Page[models.Notification]{Content: f.items, TotalElements: len(f.items), TotalPages: 1, Size: 10}, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id int64) error {
	f.read = append(f.read, id)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = models.NotificationRead
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAllRead(context.Context) error {
	for i := range f.items {
		f.items[i].Status = models.NotificationRead
	}
	return nil
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	fake := &fakeNotifications{items: []models.Notification{
		{ID: 1, Status: models.NotificationPending},
		{ID: 2, Status: models.NotificationSent},
		{ID: 3, Status: models.NotificationRead},
	}}
	rec := &notify.Recorder{}
	hook := NewNotifications(fake, session.Standard, Filter{}, testDeps(rec, nil))
	hook.Mount(ctx)
	assert.Equal(t, 2, hook.UnreadCount())

	require.NoError(t, hook.MarkRead(ctx, 1))
	assert.Equal(t, 1, hook.UnreadCount())

	require.NoError(t, hook.MarkAllRead(ctx))
	assert.Equal(t, 0, hook.UnreadCount())
	assert.Equal(t, []string{"Notification marked as read", "All notifications marked as read"}, rec.Successes())
}

func TestNotifications_ForbiddenFetchIsToasted(t *testing.T) {
	fake := &fakeNotifications{listErr: apierr.NewAPIError(403, "Access denied")}
	rec := &notify.Recorder{}
	hook := NewNotifications(fake, session.Standard, Filter{}, testDeps(rec, nil))
	hook.Mount(context.Background())

	assert.Error(t, hook.State().Err)
	assert.Equal(t, []string{"Access denied"}, rec.Errors())

	tasks := NewTasks(&fakeTasks{respond: func(Filter) (*models.Page[models.Task], error) {
		return nil, apierr.NewAPIError(403, "Access denied")
	}}, session.Standard, Filter{}, testDeps(rec, nil))
	tasks.Mount(context.Background())
	assert.Len(t, rec.Errors(), 1)
}

type fakePayments struct {
	lists    []Filter
	initErr  error
	callback *models.Payment
}

func (f *fakePayments) List(_ context.Context, p Filter) (*models.Page[models.Payment], error) {
	f.lists = append(f.lists, p)
	return &models.Page[models.Payment]{Content: []models.Payment{{ID: 1}}, TotalPages: 1, Size: 20}, nil
}

func (f *fakePayments) Create(_ context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &models.PaymentInitiation{PaymentURL: "https://gateway.example/pay?project=" + url.QueryEscape(req.ReturnURL)}, nil
}

func (f *fakePayments) Callback(context.Context, url.Values) (*models.Payment, error) {
	return f.callback, nil
}

func TestPayments(t *testing.T) {
	ctx := context.Background()
	fake := &fakePayments{callback: &models.Payment{ID: 1, Status: models.PaymentSuccess}}
	rec := &notify.Recorder{}
	hook := NewPayments(fake, session.Elevated, Filter{Status: "all"}, testDeps(rec, nil))
	hook.Mount(ctx)
	assert.Equal(t, Filter{Size: PaymentsPageSize, Status: "all"}, fake.lists[0])

	u, err := hook.Initiate(ctx, 2, 50000, "http://localhost/payments/callback")
	require.NoError(t, err)
	assert.Contains(t, u, "https://gateway.example/pay")

	payment, err := hook.HandleCallback(ctx, url.Values{"vnp_ResponseCode": {"00"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), payment.ID)
	assert.Equal(t, []string{"Payment successful!"}, rec.Successes())
	assert.Len(t, fake.lists, 2)

	fake.callback = &models.Payment{ID: 2, Status: models.PaymentFailed}
	_, err = hook.HandleCallback(ctx, url.Values{})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, []string{"Payment failed!"}, rec.Errors())

	fake.initErr = apierr.NewAPIError(400, "Amount must be positive")
	_, err = hook.Initiate(ctx, 2, -1, "")
	assert.Error(t, err)
	assert.Contains(t, rec.Errors(), "Amount must be positive")
}

type fakeAnalytics struct {
	summary *models.TasksSummary
	err     error
}

func (f *fakeAnalytics) TasksSummary(context.Context) (*models.TasksSummary, error) {
	return f.summary, f.err
}

func TestAnalytics(t *testing.T) {
	rec := &notify.Recorder{}
	fake := &fakeAnalytics{summary: &models.TasksSummary{TotalTasks: 12}}
	hook := NewAnalytics(fake, testDeps(rec, nil))

	hook.Load(context.Background())
	assert.Equal(t, 12, hook.State().Summary.TotalTasks)

	fake.err = apierr.NewNetworkError(errors.New("down"))
	hook.Load(context.Background())
	st := hook.State()
	assert.Nil(t, st.Summary)
	assert.Equal(t, apierr.NetworkMessage, st.Error)
	assert.Equal(t, []string{apierr.NetworkMessage}, rec.Errors())
}

func TestQuery_StateIsCopied(t *testing.T) {
	hook := NewTasks(&fakeTasks{}, session.Elevated, Filter{}, testDeps(&notify.Recorder{}, nil))
	hook.Mount(context.Background())

	st := hook.State()
	st.Items[0].Title = "mutated"
	st.Pagination.PageSize = 999
	assert.Equal(t, "task", hook.State().Items[0].Title)
	assert.Equal(t, 20, hook.State().Pagination.PageSize)
}
