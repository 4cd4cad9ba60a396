package wrike

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/workload-dashboard/internal/credentials"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Form   map[string]string
	Auth   string
	CType  string
}

// fakeAPI records requests and answers them with handle.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  map[string]string{},
		Form:   map[string]string{},
		Auth:   r.Header.Get("Authorization"),
		CType:  r.Header.Get("Content-Type"),
	}
	for k := range r.URL.Query() {
		rec.Query[k] = r.URL.Query().Get(k)
	}
	for k := range r.PostForm {
		rec.Form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	n := len(f.requests)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handle(w, r, n)
}

func (f *fakeAPI) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func tasksPayload(next string, ids ...string) map[string]any {
	data := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]any{"id": id, "title": "Task " + id})
	}
	payload := map[string]any{"kind": "tasks", "data": data}
	if next != "" {
		payload["nextPageToken"] = next
	}
	return payload
}

type testEnv struct {
	api    *fakeAPI
	server *httptest.Server
	store  *credentials.MemoryStore
	client *Client
}

func newTestEnv(t *testing.T, creds credentials.Credentials, tokenCfg TokenConfig, handle func(w http.ResponseWriter, r *http.Request, n int), opts ...Option) *testEnv {
	t.Helper()
	api := &fakeAPI{handle: handle}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	store := credentials.NewMemoryStore(creds)
	tokenCfg.Initial = creds
	tokens := NewTokenManager(tokenCfg, store, nil)
	opts = append([]Option{WithBaseURL(server.URL)}, opts...)
	return &testEnv{
		api:    api,
		server: server,
		store:  store,
		client: NewClient(tokens, opts...),
	}
}

func TestListTasksForResponsible_Paginates(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		if r.URL.Query().Get("nextPageToken") == "" {
			writeJSON(w, http.StatusOK, tasksPayload("page-2", "T1", "T2"))
			return
		}
		writeJSON(w, http.StatusOK, tasksPayload("", "T3"))
	})

	tasks, err := env.client.ListTasksForResponsible(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "T3", tasks[2].ID)

	reqs := env.api.Requests()
	require.Len(t, reqs, 2)
	first := reqs[0]
	assert.Equal(t, http.MethodGet, first.Method)
	assert.Equal(t, "/tasks", first.Path)
	assert.Equal(t, `["C1"]`, first.Query["responsibles"])
	assert.Equal(t, "Active", first.Query["status"])
	assert.Equal(t, "[effortAllocation,description]", first.Query["fields"])
	assert.Equal(t, "1000", first.Query["pageSize"])
	assert.Equal(t, "bearer tok", first.Auth)
	assert.Equal(t, "page-2", reqs[1].Query["nextPageToken"])
}

func TestListTasksForResponsible_PageCap(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, tasksPayload(fmt.Sprintf("page-%d", n+1), fmt.Sprintf("T%d", n)))
	})

	tasks, err := env.client.ListTasksForResponsible(context.Background(), "C1")
	require.NoError(t, err)
	assert.Len(t, tasks, 20)
	assert.Len(t, env.api.Requests(), 20)
}

func TestListTasksForResponsible_DescriptionDowngrade(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		if strings.Contains(r.URL.Query().Get("fields"), "description") {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":            "invalid_parameter",
				"errorDescription": "Parameter 'fields' value is invalid: description",
			})
			return
		}
		writeJSON(w, http.StatusOK, tasksPayload("", "T1"))
	})

	tasks, err := env.client.ListTasksForResponsible(context.Background(), "C1")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.False(t, env.client.SupportsDescription())

	_, err = env.client.GetTasksByIDs(context.Background(), []string{"T1"})
	require.NoError(t, err)

	reqs := env.api.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "[effortAllocation]", reqs[1].Query["fields"])
	assert.Equal(t, "[effortAllocation]", reqs[2].Query["fields"])
}

func TestListTasksForResponsible_OtherBadRequestIsReturned(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request", "errorDescription": "bad responsibles"})
	})

	_, err := env.client.ListTasksForResponsible(context.Background(), "C1")
	var upstream *apierrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.Status)
	assert.Equal(t, "bad responsibles", upstream.Message)
	assert.True(t, env.client.SupportsDescription())
	assert.Len(t, env.api.Requests(), 1)
}

func TestGetTasksByIDs_DedupesAndBatches(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		ids := strings.Split(strings.TrimPrefix(r.URL.Path, "/tasks/"), ",")
		writeJSON(w, http.StatusOK, tasksPayload("", ids...))
	})

	ids := make([]string, 0, 175)
	for i := 0; i < 170; i++ {
		ids = append(ids, fmt.Sprintf("T%03d", i))
	}
	ids = append(ids, "T000", "T001", "", "T002", "  ")

	tasks, err := env.client.GetTasksByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, tasks, 170)

	reqs := env.api.Requests()
	require.Len(t, reqs, 3)
	sizes := []int{}
	for _, r := range reqs {
		sizes = append(sizes, len(strings.Split(strings.TrimPrefix(r.Path, "/tasks/"), ",")))
	}
	assert.Equal(t, []int{80, 80, 10}, sizes)
}

func TestGetTasksByIDs_Empty(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	tasks, err := env.client.GetTasksByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func newTokenServer(t *testing.T, status int, body map[string]any) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, status, body)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestDo_RefreshesOnceOnUnauthorized(t *testing.T) {
	tokenServer, tokenCalls := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "fresh",
		"refresh_token": "refresh-2",
		"token_type":    "bearer",
		"expires_in":    3600,
		"host":          "app-eu.wrike.com",
	})

	env := newTestEnv(t,
		credentials.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"},
		TokenConfig{ClientID: "client", ClientSecret: "secret", TokenURL: tokenServer.URL},
		func(w http.ResponseWriter, r *http.Request, n int) {
			if r.Header.Get("Authorization") != "bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not_authorized", "errorDescription": "Access token is invalid"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
		})

	_, err := env.client.ListContacts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, *tokenCalls)
	assert.Len(t, env.api.Requests(), 2)

	saved, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "refresh-2", saved.RefreshToken)
	assert.Equal(t, "app-eu.wrike.com", saved.Host)
	assert.Equal(t, "app-eu.wrike.com", env.client.Tokens().Host())
}

func TestDo_RetriesOnlyOnce(t *testing.T) {
	tokenServer, tokenCalls := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "fresh",
		"token_type":   "bearer",
	})

	env := newTestEnv(t,
		credentials.Credentials{AccessToken: "stale", RefreshToken: "refresh-1"},
		TokenConfig{ClientID: "client", ClientSecret: "secret", TokenURL: tokenServer.URL},
		func(w http.ResponseWriter, r *http.Request, n int) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not_authorized"})
		})

	err := env.client.DeleteTask(context.Background(), "T1")

	var authErr *apierrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), apierrors.ReauthGuidance)
	assert.Equal(t, 1, *tokenCalls)
	assert.Len(t, env.api.Requests(), 2)
}

func TestDo_RefreshFailureSurfacesAuthError(t *testing.T) {
	tokenServer, _ := newTokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_grant",
		"error_description": "refresh token revoked",
	})

	env := newTestEnv(t,
		credentials.Credentials{AccessToken: "stale", RefreshToken: "revoked"},
		TokenConfig{ClientID: "client", ClientSecret: "secret", TokenURL: tokenServer.URL},
		func(w http.ResponseWriter, r *http.Request, n int) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_token"})
		})

	_, err := env.client.ListWorkflows(context.Background())

	var authErr *apierrors.AuthError
	require.ErrorAs(t, err, &authErr)
	var upstream *apierrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "invalid_token", upstream.Code)
	assert.Len(t, env.api.Requests(), 1)
	assert.Equal(t, 0, env.store.Saves())
}

func TestDo_PicksUpTokenChangedInStore(t *testing.T) {
	var env *testEnv
	env = newTestEnv(t, credentials.Credentials{AccessToken: "stale"}, TokenConfig{},
		func(w http.ResponseWriter, r *http.Request, n int) {
			if r.Header.Get("Authorization") == "bearer rotated" {
				writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
				return
			}
			// Simulate an out-of-band re-auth writing a new token.
			_ = env.store.Save(context.Background(), credentials.Credentials{AccessToken: "rotated"})
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not_authorized"})
		})

	_, err := env.client.ListContacts(context.Background())
	require.NoError(t, err)

	reqs := env.api.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "bearer rotated", reqs[1].Auth)
}

func TestDo_MissingToken(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := env.client.ListContacts(context.Background())
	var authErr *apierrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestDo_RefreshesWhenOnlyRefreshTokenHeld(t *testing.T) {
	tokenServer, tokenCalls := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "fresh",
		"token_type":   "bearer",
	})
	env := newTestEnv(t,
		credentials.Credentials{RefreshToken: "refresh-1"},
		TokenConfig{ClientID: "client", ClientSecret: "secret", TokenURL: tokenServer.URL},
		func(w http.ResponseWriter, r *http.Request, n int) {
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
		})

	_, err := env.client.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *tokenCalls)
	assert.Equal(t, "bearer fresh", env.api.Requests()[0].Auth)
}

func TestUpdateTask_EncodesForm(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, tasksPayload("", "T1"))
	})

	err := env.client.UpdateTask(context.Background(), "T1", TaskPatch{
		Dates:      PlannedDates("2024-05-10", "2024-05-08"),
		Importance: models.ImportanceHigh,
	})
	require.NoError(t, err)

	reqs := env.api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/tasks/T1", reqs[0].Path)
	assert.Equal(t, "application/x-www-form-urlencoded", reqs[0].CType)
	assert.JSONEq(t, `{"type":"Planned","due":"2024-05-10","start":"2024-05-08"}`, reqs[0].Form["dates"])
	assert.Equal(t, "High", reqs[0].Form["importance"])
	_, hasStatus := reqs[0].Form["status"]
	assert.False(t, hasStatus)
}

func TestUpdateTask_OmitsEmptyStart(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, tasksPayload("", "T1"))
	})

	require.NoError(t, env.client.UpdateTask(context.Background(), "T1", TaskPatch{Dates: PlannedDates("2024-05-10", "")}))
	assert.JSONEq(t, `{"type":"Planned","due":"2024-05-10"}`, env.api.Requests()[0].Form["dates"])
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})

	require.NoError(t, env.client.AddComment(context.Background(), "T1", "<b>hi</b>"))
	req := env.api.Requests()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tasks/T1/comments", req.Path)
	assert.Equal(t, "<b>hi</b>", req.Form["text"])
}

func TestUpstreamErrorPreservesStatus(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{}, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource_not_found", "errorDescription": "Task not found"})
	})

	err := env.client.DeleteTask(context.Background(), "T404")
	var upstream *apierrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.Contains(t, err.Error(), "Task not found")
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	env := newTestEnv(t, credentials.Credentials{AccessToken: "tok"}, TokenConfig{},
		func(w http.ResponseWriter, r *http.Request, n int) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "server_error"})
		},
		WithBreaker(BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute}),
	)

	for i := 0; i < 2; i++ {
		_, err := env.client.ListContacts(context.Background())
		var upstream *apierrors.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusBadGateway, upstream.Status)
	}

	_, err := env.client.ListContacts(context.Background())
	var upstream *apierrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.Equal(t, "circuit_open", upstream.Code)
	assert.Len(t, env.api.Requests(), 2)
}

func TestIsUnsupportedDescriptionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown field", &apierrors.UpstreamError{Status: 400, Message: "Unknown field 'description'"}, true},
		{"unsupported", &apierrors.UpstreamError{Status: 400, Message: "description is unsupported"}, true},
		{"other field", &apierrors.UpstreamError{Status: 400, Message: "Unknown field 'effort'"}, false},
		{"not a 400", &apierrors.UpstreamError{Status: 500, Message: "invalid description field"}, false},
		{"plain error", errors.New("invalid description field"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnsupportedDescriptionError(tt.err))
		})
	}
}
