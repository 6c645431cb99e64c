package http

import (
	"net/http"

	pnet "postlens/internal/platform/net"
)

// Envelope is the body every JSON route writes
type Envelope = pnet.Envelope

// Response is what return style handlers produce. An error Body is mapped
// through the error codes and overrides Status
type Response struct {
	Status int
	Body   any
	Header http.Header
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: http.StatusOK, Body: data} }

// Created is a 201 with data
func Created(data any) Response { return Response{Status: http.StatusCreated, Body: data} }

// NoContent is an empty 204
func NoContent() Response { return Response{Status: http.StatusNoContent} }

// Error maps err to its status and error envelope
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a return style handler
func Handle(fn func(*http.Request) Response) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(r).Write(w, r)
	}
}

// Write renders resp as an envelope
func (resp Response) Write(w http.ResponseWriter, r *http.Request) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	reqID := pnet.RequestID(r.Context())

	if err, ok := resp.Body.(error); ok && err != nil {
		status, env := pnet.Failure(err, reqID)
		pnet.WriteJSON(w, status, env)
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	pnet.WriteJSON(w, status, pnet.Success(status, resp.Body, reqID))
}
