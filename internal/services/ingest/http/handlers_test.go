package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"postlens/internal/modkit/httpkit"
	perr "postlens/internal/platform/errors"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/services/ingest/domain"
)

const secret = "test-secret"

// stubSvc records calls and answers from canned values
type stubSvc struct {
	owner    string
	id       string
	url      string
	analyzed string
	getErr   error
}

func (s *stubSvc) CreatePost(_ context.Context, owner string, in domain.CreateInput) (domain.Post, error) {
	s.owner = owner
	return domain.Post{ID: "p1", OwnerID: owner, Text: in.Text, Status: domain.StatusPending}, nil
}

func (s *stubSvc) Import(_ context.Context, owner, url string) (domain.ImportResult, error) {
	s.owner, s.url = owner, url
	return domain.ImportResult{Post: domain.Post{ID: "p2", OwnerID: owner}, Fetcher: "x_api"}, nil
}

func (s *stubSvc) Analyze(_ context.Context, id string) (domain.AnalyzeResult, error) {
	s.analyzed = id
	return domain.AnalyzeResult{PostID: id, Status: domain.StatusAnalyzed}, nil
}

func (s *stubSvc) Get(_ context.Context, owner, id string) (domain.PostDetail, error) {
	s.owner, s.id = owner, id
	if s.getErr != nil {
		return domain.PostDetail{}, s.getErr
	}
	return domain.PostDetail{Post: domain.Post{ID: id, OwnerID: owner}, Suggestions: []domain.SuggestionView{}}, nil
}

func (s *stubSvc) List(_ context.Context, owner string) ([]domain.Post, error) {
	s.owner = owner
	return []domain.Post{}, nil
}

func (s *stubSvc) Reset(_ context.Context, owner, id string) error {
	s.owner, s.id = owner, id
	return nil
}

func (s *stubSvc) Feedback(_ context.Context, user string, _ domain.FeedbackInput) (domain.FeedbackResult, error) {
	s.owner = user
	return domain.FeedbackResult{Status: "created"}, nil
}

func (s *stubSvc) Concepts(context.Context) ([]domain.Concept, error) { return []domain.Concept{}, nil }

func newServer(t *testing.T, svc domain.ServicePort) *httptest.Server {
	t.Helper()
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	auth := httpkit.Auth(httpkit.NewPortFunc(httpkit.HS256(secret)))
	r.Route("/posts", func(rr httpkit.Router) {
		rr.Use(auth)
		Register(rr, svc)
	})
	r.Route("/feedback", func(rr httpkit.Router) {
		rr.Use(auth)
		RegisterFeedback(rr, svc)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, user, body string) (*stdhttp.Response, map[string]any) {
	t.Helper()
	req, err := stdhttp.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, err := httpkit.IssueHS256(secret, user, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestRoutes_RequireBearer(t *testing.T) {
	srv := newServer(t, &stubSvc{})
	resp, _ := call(t, srv, stdhttp.MethodGet, "/posts", "", "")
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestImport_UsesTokenSubject(t *testing.T) {
	svc := &stubSvc{}
	srv := newServer(t, svc)

	resp, env := call(t, srv, stdhttp.MethodPost, "/posts/import", "user-1", `{"url":"https://x.com/a/status/1"}`)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, env)
	require.Equal(t, "user-1", svc.owner)
	require.Equal(t, "https://x.com/a/status/1", svc.url)
}

func TestImport_ValidatesBody(t *testing.T) {
	srv := newServer(t, &stubSvc{})
	resp, _ := call(t, srv, stdhttp.MethodPost, "/posts/import", "user-1", `{"url":"not a url"}`)
	require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
}

func TestGetAndAnalyze_PathID(t *testing.T) {
	svc := &stubSvc{}
	srv := newServer(t, svc)

	resp, _ := call(t, srv, stdhttp.MethodGet, "/posts/abc", "user-2", "")
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	require.Equal(t, "abc", svc.id)

	resp, _ = call(t, srv, stdhttp.MethodPost, "/posts/abc/analyze", "user-2", "")
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	require.Equal(t, "abc", svc.analyzed)
}

func TestAnalyze_ForeignPostIsNotFound(t *testing.T) {
	svc := &stubSvc{getErr: perr.NotFoundf("post abc not found")}
	srv := newServer(t, svc)

	resp, _ := call(t, srv, stdhttp.MethodPost, "/posts/abc/analyze", "user-3", "")
	require.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	require.Empty(t, svc.analyzed)
}

func TestFeedback_ValidatesVote(t *testing.T) {
	srv := newServer(t, &stubSvc{})

	resp, _ := call(t, srv, stdhttp.MethodPost, "/feedback", "user-1",
		`{"suggestionId":"8c6b1c84-4f1e-4ad3-9d8e-0c1f2b3a4d5e","vote":"sideways"}`)
	require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, srv, stdhttp.MethodPost, "/feedback", "user-1",
		`{"suggestionId":"8c6b1c84-4f1e-4ad3-9d8e-0c1f2b3a4d5e","vote":"down"}`)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}
