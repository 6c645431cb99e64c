package net

import (
	"encoding/json"
	"net/http"
	"time"

	perr "postlens/internal/platform/errors"
)

// Envelope wraps every JSON body the API and the capture service return.
// Data is set on success. Failures carry Code and Error, plus ResetAt when a
// rate limit knows when it lifts
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	ResetAt    *time.Time     `json:"reset_at,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Success builds the envelope for a successful status
func Success(status int, data any, reqID string) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Failure maps err to its HTTP status and error envelope. A nil err is a plain 200
func Failure(err error, reqID string) (int, Envelope) {
	if err == nil {
		return http.StatusOK, Success(http.StatusOK, nil, reqID)
	}
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	return status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		Field:      wire.Field,
		ResetAt:    wire.ResetAt,
		RequestID:  reqID,
	}
}

// WriteJSON encodes v with status. Encoding errors are dropped since the
// header is already on the wire
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
