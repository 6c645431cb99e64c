// Package httpkit is what module http packages import to declare routes. It
// re-exports the platform router and adds return style JSON handlers
package httpkit

import (
	"net/http"
	"strings"

	perr "postlens/internal/platform/errors"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/platform/net/http/bind"

	"github.com/go-chi/chi/v5"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Envelope documents the response body in swagger annotations
	Envelope = phttp.Envelope
)

// Get mounts a handler with no request body. Its result is wrapped in a 200
// envelope unless it is already a phttp.Response
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, call(h))
}

// Post is Get for POST routes that take no body
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, call(h))
}

// PostJSON decodes and validates T from the body before calling h
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, call(func(req *http.Request) (any, error) {
		in, err := bind.ParseJSON[T](req)
		if err != nil {
			return nil, err
		}
		return h(req, in)
	}))
}

func call(h func(*http.Request) (any, error)) phttp.Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := h(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(phttp.Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// Param returns a trimmed path parameter; an empty one is InvalidArgument
func Param(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", perr.WithField(perr.InvalidArgf("missing path parameter %s", name), name)
	}
	return v, nil
}
