// Package errors is the project error type: a code that maps to an HTTP
// status, a message, an optional cause and the details an upstream reply left
// behind. Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode classifies an error. Values are on the wire; append only
type ErrorCode uint16

const (
	ErrorCodeUnknown         ErrorCode = iota // unclassified
	ErrorCodePanic                            // recovered by middleware
	ErrorCodeUnavailable                      // transient, retry may succeed
	ErrorCodeTooManyRequests                  // local ledger or upstream 429
	ErrorCodeConflict                         // conflicting edit beyond a duplicate key
	ErrorCodeUnauthorized                     // missing or bad bearer token
	ErrorCodeForbidden                        // authenticated but not allowed
	ErrorCodeInvalidArgument                  // bad path or query input
	ErrorCodeValidation                       // body failed validation
	ErrorCodeJSON                             // body is not the JSON we expect
	ErrorCodeNotFound                         // missing resource
	ErrorCodeDuplicateKey                     // unique constraint
	ErrorCodeDB                               // any other database failure
	ErrorCodeUnresolvable                     // post url with no platform id
	ErrorCodeCredentials                      // upstream rejected our credentials
	ErrorCodeUpstream                         // opaque non-2xx from a dependency
	ErrorCodeEmptyContent                     // dependency answered without usable text
	ErrorCodeExtraction                       // LLM extraction failed, recovered locally
	ErrorCodeAnalysis                         // Analyze failed, recorded on the post
)

var codeStatus = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeUnresolvable:    http.StatusUnprocessableEntity,
	ErrorCodeCredentials:     http.StatusBadGateway,
	ErrorCodeUpstream:        http.StatusBadGateway,
	ErrorCodeEmptyContent:    http.StatusUnprocessableEntity,
}

// HTTPStatusCode is the response status for c; unmapped codes are 500
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is the sentinel repositories return for a missing row
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error. msg is for people, code for machines. status
// and resetAt are set when an upstream reply caused the error
type Error struct {
	orig    error
	msg     string
	code    ErrorCode
	field   string
	op      string
	status  int
	resetAt time.Time
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig != nil:
		return e.msg + ": " + e.orig.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

// Code is the classification
func (e *Error) Code() ErrorCode { return e.code }

// Field names the offending input, if any
func (e *Error) Field() string { return e.field }

// Op is the operation label, if any
func (e *Error) Op() string { return e.op }

// As finds our *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// Root is the deepest wrapped cause
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// CodeOf is err's code; foreign errors are Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is the response status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// StatusOf is the upstream reply status err carries, zero when none
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.status
	}
	return 0
}

// ResetAtOf is the time the upstream window reopens, when known
func ResetAtOf(err error) (time.Time, bool) {
	if e, ok := As(err); ok && !e.resetAt.IsZero() {
		return e.resetAt, true
	}
	return time.Time{}, false
}

// Wire is the error as the API renders it
type Wire struct {
	Code    ErrorCode  `json:"code"`
	Message string     `json:"message"`
	Field   string     `json:"field,omitempty"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}

// WireFrom renders err; a nil err is the zero Wire
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	e, ok := As(err)
	if !ok {
		return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
	}
	w := Wire{Code: e.code, Message: e.msg, Field: e.field}
	if !e.resetAt.IsZero() {
		at := e.resetAt.UTC()
		w.ResetAt = &at
	}
	return w
}

// with returns a modified copy of our error, or err untouched when it is foreign
func with(err error, set func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	set(&c)
	return &c
}

// WithField names the offending input
func WithField(err error, field string) error {
	return with(err, func(e *Error) { e.field = field })
}

// WithOp labels the failing operation
func WithOp(err error, op string) error {
	return with(err, func(e *Error) { e.op = op })
}

// WithStatus records the upstream reply status
func WithStatus(err error, status int) error {
	return with(err, func(e *Error) { e.status = status })
}

// New is an error with code and msg
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap gives orig a code and context message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{orig: orig, code: code, msg: msg}
}

// Wrapf is Wrap with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{orig: orig, code: code, msg: fmt.Sprintf(format, a...)}
}

func NotFoundf(format string, a ...any) error     { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error   { return Newf(ErrorCodeInvalidArgument, format, a...) }
func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func Unavailablef(format string, a ...any) error  { return Newf(ErrorCodeUnavailable, format, a...) }
func Unresolvablef(format string, a ...any) error { return Newf(ErrorCodeUnresolvable, format, a...) }
func EmptyContentf(format string, a ...any) error { return Newf(ErrorCodeEmptyContent, format, a...) }

// RateLimited is a 429 that knows when the window reopens; a zero resetAt means unknown
func RateLimited(resetAt time.Time, format string, a ...any) error {
	return &Error{code: ErrorCodeTooManyRequests, msg: fmt.Sprintf(format, a...), status: http.StatusTooManyRequests, resetAt: resetAt}
}

// Upstreamf is an opaque upstream failure with its reply status
func Upstreamf(status int, format string, a ...any) error {
	return &Error{code: ErrorCodeUpstream, msg: fmt.Sprintf(format, a...), status: status}
}

// Credentialsf is an upstream rejection of our own credentials
func Credentialsf(status int, format string, a ...any) error {
	return &Error{code: ErrorCodeCredentials, msg: fmt.Sprintf(format, a...), status: status}
}

// Retryable reports whether the caller may try again later: transient
// dependency codes, then the Postgres rules in pg.go
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests, ErrorCodeUpstream:
		return true
	}
	return IsRetryable(err)
}
