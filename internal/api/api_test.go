package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/httpclient"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
	"github.com/p-blackswan/taskhub/pkg/tokenstore"
)

type call struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// setupTestServer returns services over a fake backend that records every
// call and answers from routes keyed by "METHOD path".
func setupTestServer(t *testing.T, routes map[string]string) (*Services, *session.Session, *[]call) {
	t.Helper()
	var calls []call
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(body)})
		resp, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)

	sess := session.New(tokenstore.NewMemoryStore(), nil, "", zerolog.Nop())
	client := httpclient.New(server.URL, sess, 0, nil, zerolog.Nop())
	client.SetHTTPClient(server.Client())
	return NewServices(client, sess, zerolog.Nop()), sess, &calls
}

func TestListParams_Values(t *testing.T) {
	p := ListParams{Page: 1, Size: 20, Status: "TODO", Priority: "HIGH", ProjectID: 3, OwnerID: 7, Sort: "createdAt,desc"}
	want := url.Values{
		"page": {"1"}, "size": {"20"}, "status": {"TODO"}, "priority": {"HIGH"},
		"projectId": {"3"}, "ownerId": {"7"}, "sort": {"createdAt,desc"},
	}
	if diff := cmp.Diff(want, p.Values()); diff != "" {
		t.Fatalf("Values() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, url.Values{"page": {"0"}}, ListParams{Status: "all"}.Values())
	assert.Equal(t,
		url.Values{"page": {"0"}, "search": {"all"}, "priority": {"all"}, "sort": {"all"}},
		ListParams{Search: "all", Priority: "all", Sort: "all"}.Values())
	assert.Equal(t, ListParams{Page: 1, Size: 20}, p.PageOnly())
}

func TestAuth_LoginStoresTokenThenProfile(t *testing.T) {
	svc, sess, calls := setupTestServer(t, map[string]string{
		"POST /auth/login":  `{"code":1000,"result":{"token":"jwt-1","expiryTime":"2099-01-01T00:00:00Z"}}`,
		"GET /users/myInfo": `{"code":1000,"result":{"id":9,"username":"ana","roles":[{"name":"ADMIN"}]}}`,
	})

	user, err := svc.Auth.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, session.Elevated, sess.Strategy())
	assert.Equal(t, 2099, sess.ExpiresAt().Year())

	require.Len(t, *calls, 2)
	assert.JSONEq(t, `{"username":"ana","password":"secret"}`, (*calls)[0].Body)
	assert.Equal(t, "/users/myInfo", (*calls)[1].Path)
}

func TestAuth_GoogleAndRegister(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"POST /auth/google":  `{"code":1000,"result":{"token":"g"}}`,
		"POST /users/create": `{"code":1000,"result":{"token":"r"}}`,
		"GET /users/myInfo":  `{"code":1000,"result":{"id":1,"username":"x"}}`,
	})
	ctx := context.Background()

	_, err := svc.Auth.GoogleLogin(ctx, "cred")
	require.NoError(t, err)
	_, err = svc.Auth.Register(ctx, models.RegisterRequest{Username: "x", Email: "x@example.com", Password: "p", FullName: "X"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"credential":"cred"}`, (*calls)[0].Body)
	assert.Equal(t, "/users/create", (*calls)[2].Path)
}

func TestAuth_LoginProfileFailureClearsCredentials(t *testing.T) {
	svc, sess, calls := setupTestServer(t, map[string]string{
		"POST /auth/login":  `{"code":1000,"result":{"token":"jwt-1"}}`,
		"GET /users/myInfo": `<html>maintenance</html>`,
	})

	_, err := svc.Auth.Login(context.Background(), "ana", "secret")
	require.Error(t, err)
	assert.Empty(t, sess.Token())
	assert.Nil(t, sess.User())
	assert.False(t, sess.Authenticated())
	assert.Len(t, *calls, 2)
}

func TestAuth_LoginWithoutToken(t *testing.T) {
	svc, sess, _ := setupTestServer(t, map[string]string{
		"POST /auth/login": `{"code":1000,"result":{}}`,
	})
	_, err := svc.Auth.Login(context.Background(), "a", "b")
	assert.Error(t, err)
	assert.False(t, sess.Authenticated())
}

func TestAuth_LogoutAlwaysClears(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body models.LogoutRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "tok", body.Token)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx := context.Background()
	sess := session.New(tokenstore.NewMemoryStore(), nil, "", zerolog.Nop())
	require.NoError(t, sess.SetCredentials(ctx, "tok", time.Time{}))
	require.NoError(t, sess.SetUser(ctx, &models.User{ID: 1}))
	client := httpclient.New(server.URL, sess, 0, nil, zerolog.Nop())

	require.NoError(t, NewAuthService(client, sess, zerolog.Nop()).Logout(ctx))
	assert.Empty(t, sess.Token())
	assert.Nil(t, sess.User())
}

func TestTasks_Endpoints(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"GET /tasks/my-tasks": `{"content":[{"id":1,"title":"a"}],"totalElements":1,"totalPages":1,"size":20,"number":0}`,
	})
	ctx := context.Background()

	page, err := svc.Tasks.Mine(ctx, ListParams{Page: 0, Size: 20, Status: "TODO", ProjectID: 4})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)

	_, _ = svc.Tasks.UpdateStatus(ctx, 5, models.TaskDone)
	require.NoError(t, svc.Tasks.Restore(ctx, 5))
	require.NoError(t, svc.Tasks.Delete(ctx, 5))
	_, _ = svc.Tasks.SoftDeleted(ctx, ListParams{Page: 1, Size: 10, Scope: "all", Status: "TODO"})

	got := *calls
	assert.Equal(t, url.Values{"page": {"0"}, "size": {"20"}}, got[0].Query)
	assert.Equal(t, "PATCH /tasks/5/status", got[1].Method+" "+got[1].Path)
	assert.JSONEq(t, `{"status":"DONE"}`, got[1].Body)
	assert.Equal(t, "PATCH /tasks/5/restore", got[2].Method+" "+got[2].Path)
	assert.Equal(t, "DELETE /tasks/5", got[3].Method+" "+got[3].Path)
	assert.Equal(t, url.Values{"page": {"1"}, "size": {"10"}, "scope": {"all"}}, got[4].Query)
}

func TestProjects_Endpoints(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"GET /projects":      `{"code":1000,"result":{"content":[{"id":2,"name":"p"}],"totalPages":1,"size":10}}`,
		"POST /projects/4/members/9": `{"code":1000,"result":{"id":4,"members":[{"id":9}]}}`,
	})
	ctx := context.Background()

	page, err := svc.Projects.List(ctx, ListParams{Size: 10, OwnerID: 7, Status: "PLANNING"})
	require.NoError(t, err)
	assert.Equal(t, "p", page.Content[0].Name)

	project, err := svc.Projects.AddMember(ctx, 4, 9)
	require.NoError(t, err)
	assert.Len(t, project.Members, 1)

	_, _ = svc.Projects.RemoveMember(ctx, 4, 9)
	_, _ = svc.Projects.ChangeOwner(ctx, 4, 11)
	require.NoError(t, svc.Projects.Restore(ctx, 4))
	_, _ = svc.Projects.SoftDeleted(ctx, ListParams{})
	_, _ = svc.Projects.Create(ctx, models.ProjectRequest{Name: "new"})

	got := *calls
	assert.Equal(t, url.Values{"page": {"0"}, "size": {"10"}, "ownerId": {"7"}}, got[0].Query)
	assert.Equal(t, "DELETE /projects/4/members/9", got[2].Method+" "+got[2].Path)
	assert.Equal(t, "PUT /projects/4/owner/11", got[3].Method+" "+got[3].Path)
	assert.Equal(t, "PUT /projects/restore/4", got[4].Method+" "+got[4].Path)
	assert.Equal(t, "my", got[5].Query.Get("scope"))
	assert.Equal(t, "POST /projects/create", got[6].Method+" "+got[6].Path)
}

func TestNotifications_RequireUser(t *testing.T) {
	svc, sess, calls := setupTestServer(t, map[string]string{
		"GET /notifications/user/3": `{"code":1000,"result":{"content":[{"id":1,"status":"SENT"}],"totalPages":1}}`,
	})
	ctx := context.Background()

	_, err := svc.Notifications.List(ctx, ListParams{})
	assert.ErrorIs(t, err, apierr.ErrNotAuthenticated)
	assert.Empty(t, *calls)

	require.NoError(t, sess.SetCredentials(ctx, "t", time.Time{}))
	require.NoError(t, sess.SetUser(ctx, &models.User{ID: 3}))

	page, err := svc.Notifications.List(ctx, ListParams{Size: 10})
	require.NoError(t, err)
	assert.True(t, page.Content[0].Unread())

	require.NoError(t, svc.Notifications.MarkRead(ctx, 1))
	require.NoError(t, svc.Notifications.MarkAllRead(ctx))
	assert.Equal(t, "/notifications/1/read/user/3", (*calls)[1].Path)
	assert.Equal(t, "/notifications/read-all/user/3", (*calls)[2].Path)
}

func TestPayments_Endpoints(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"POST /payments/create":  `{"status":"OK","paymentUrl":"https://gateway.example/pay?x=1"}`,
		"GET /payments/callback": `{"id":5,"status":"SUCCESS","amount":100000}`,
	})
	ctx := context.Background()

	_, _ = svc.Payments.List(ctx, ListParams{Size: 20, Status: "all"})
	init, err := svc.Payments.Create(ctx, models.PaymentRequest{ProjectID: 2, Amount: 100000, ReturnURL: "http://localhost/cb"})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/pay?x=1", init.PaymentURL)

	payment, err := svc.Payments.Callback(ctx, url.Values{"vnp_ResponseCode": {"00"}})
	require.NoError(t, err)
	assert.True(t, payment.Status.Succeeded())

	got := *calls
	assert.Equal(t, url.Values{"page": {"0"}, "size": {"20"}}, got[0].Query)
	assert.Equal(t, "00", got[2].Query.Get("vnp_ResponseCode"))
}

func TestChat_History(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"GET /api/chat/private/4":     `{"code":1000,"result":[{"id":1,"senderId":4,"receiverId":1,"content":"hi"}]}`,
		"GET /api/chat/conversations": `{"code":1000,"result":[{"userId":4,"name":"Bo"}]}`,
		"GET /api/chat/projects":      `{"code":1000,"result":[{"projectId":2,"projectName":"P","memberCount":3}]}`,
		"GET /api/chat/members":       `{"code":1000,"result":[{"id":4,"username":"bo"}]}`,
	})
	ctx := context.Background()

	msgs, err := svc.Chat.PrivateHistory(ctx, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, "hi", msgs[0].Content)

	convs, err := svc.Chat.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bo", convs[0].Name)

	projects, err := svc.Chat.ProjectConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, projects[0].MemberCount)

	members, err := svc.Chat.Members(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bo", members[0].Username)

	_, _ = svc.Chat.ProjectHistory(ctx, 2, 0, 0)
	last := (*calls)[len(*calls)-1]
	assert.Equal(t, url.Values{"page": {"0"}, "size": {"20"}}, last.Query)
}

func TestUsersAndAnalytics(t *testing.T) {
	svc, _, calls := setupTestServer(t, map[string]string{
		"GET /users":                   `{"code":1000,"result":{"content":[{"id":1,"username":"ana"}]}}`,
		"GET /analytics/tasks-summary": `{"totalTasks":45,"overdueTasks":3,"tasksByStatus":{"TODO":10}}`,
	})
	ctx := context.Background()

	users, err := svc.Users.Search(ctx, "an")
	require.NoError(t, err)
	assert.Equal(t, "ana", users[0].Username)
	assert.Equal(t, url.Values{"search": {"an"}, "size": {"10"}}, (*calls)[0].Query)

	summary, err := svc.Analytics.TasksSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, summary.TotalTasks)
	assert.Equal(t, 10, summary.TasksByStatus[models.TaskTodo])
}

func TestParseExpiry(t *testing.T) {
	assert.True(t, parseExpiry("").IsZero())
	assert.True(t, parseExpiry("soon").IsZero())
	assert.Equal(t, int64(1700000000000), parseExpiry("1700000000000").UnixMilli())
	assert.Equal(t, 2030, parseExpiry("2030-05-01T10:00:00Z").Year())
}
