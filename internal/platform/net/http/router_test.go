package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "postlens/internal/platform/errors"
	phttp "postlens/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestAdaptChi_RouteGroupUse(t *testing.T) {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Use(chimw.RequestID)

	r.Route("/posts", func(pr phttp.Router) {
		pr.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Scope", "posts")
				next.ServeHTTP(w, req)
			})
		})
		pr.Get("/{id}", phttp.Handle(func(req *http.Request) phttp.Response {
			return phttp.OK(map[string]string{"id": chi.URLParam(req, "id")})
		}))
		pr.Post("/", phttp.Handle(func(*http.Request) phttp.Response {
			return phttp.Created(map[string]string{"id": "p2"})
		}))
	})
	r.Group(func(gr phttp.Router) {
		gr.Get("/concepts", phttp.Handle(func(*http.Request) phttp.Response { return phttp.NoContent() }))
	})

	rec, env := serve(t, r.Mux(), http.MethodGet, "/posts/p1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "posts", rec.Header().Get("X-Scope"))
	require.Equal(t, map[string]any{"id": "p1"}, env.Data)
	require.NotEmpty(t, env.RequestID)

	rec, env = serve(t, mux, http.MethodPost, "/posts/")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Created", env.Status)

	rec, _ = serve(t, mux, http.MethodGet, "/concepts")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("X-Scope"))
}

func TestResponse_Errors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   perr.ErrorCode
	}{
		{perr.NotFoundf("post not found"), http.StatusNotFound, perr.ErrorCodeNotFound},
		{perr.Unresolvablef("not a post url"), http.StatusUnprocessableEntity, perr.ErrorCodeUnresolvable},
		{errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown},
	}
	for _, c := range cases {
		h := phttp.Handle(func(*http.Request) phttp.Response {
			resp := phttp.Error(c.err)
			resp.Header = http.Header{"Retry-After": []string{"60"}}
			return resp
		})
		rec, env := serve(t, http.HandlerFunc(h), http.MethodGet, "/")
		require.Equal(t, c.status, rec.Code)
		require.Equal(t, c.code, env.Code)
		require.Equal(t, c.err.Error(), env.Error)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))
	}
}
