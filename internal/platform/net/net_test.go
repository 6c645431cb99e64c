package net_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "postlens/internal/platform/errors"
	pnet "postlens/internal/platform/net"
)

func TestContextIdentity(t *testing.T) {
	base := context.Background()
	if pnet.WithUser(pnet.WithRequest(base, ""), "") != base {
		t.Fatalf("empty ids should leave ctx untouched")
	}

	ctx := pnet.WithUser(pnet.WithRequest(base, "req-9"), "user-3")
	if pnet.RequestID(ctx) != "req-9" || pnet.UserID(ctx) != "user-3" {
		t.Fatalf("got request=%q user=%q", pnet.RequestID(ctx), pnet.UserID(ctx))
	}
	if pnet.UserID(base) != "" || pnet.RequestID(base) != "" {
		t.Fatalf("bare ctx should carry no identity")
	}
}

func TestFailure(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   perr.ErrorCode
	}{
		{"nil", nil, http.StatusOK, 0},
		{"not found", perr.NotFoundf("post %s", "p1"), http.StatusNotFound, perr.ErrorCodeNotFound},
		{"rate limited", perr.RateLimited(time.Time{}, "window full"), http.StatusTooManyRequests, perr.ErrorCodeTooManyRequests},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, env := pnet.Failure(c.err, "req-1")
			if status != c.status || env.StatusCode != c.status || env.Code != c.code {
				t.Fatalf("Failure = %d %+v", status, env)
			}
			if env.RequestID != "req-1" {
				t.Fatalf("request id not carried: %+v", env)
			}
		})
	}
}

func TestFailure_CarriesResetAndField(t *testing.T) {
	reset := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	_, env := pnet.Failure(perr.RateLimited(reset, "x api window exhausted"), "")
	if env.ResetAt == nil || !env.ResetAt.Equal(reset) {
		t.Fatalf("reset_at = %v", env.ResetAt)
	}
	_, env = pnet.Failure(perr.WithField(perr.InvalidArgf("bad vote"), "vote"), "")
	if env.Field != "vote" {
		t.Fatalf("field = %q", env.Field)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	pnet.WriteJSON(rec, http.StatusCreated, pnet.Success(http.StatusCreated, map[string]string{"id": "p1"}, ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	var env struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "Created" || env.Data["id"] != "p1" {
		t.Fatalf("body = %+v", env)
	}
}

func TestBearer(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def":   "abc.def",
		"bearer   abc  ":   "abc",
		"BEARER xyz":       "xyz",
		"Basic dXNlcjpwdw": "",
		"Bearer":           "",
		"Bearer   ":        "",
		"":                 "",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", header)
		got, ok := pnet.Bearer(r)
		if got != want || ok != (want != "") {
			t.Fatalf("Bearer(%q) = %q,%v want %q", header, got, ok, want)
		}
	}
}
