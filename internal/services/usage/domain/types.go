// Package domain holds the usage ledger types and ports
package domain

import "time"

// Status classifies one primary API attempt
type Status string

const (
	StatusOK          Status = "ok"
	StatusRateLimited Status = "rate_limited"
	StatusError       Status = "error"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusRateLimited, StatusError:
		return true
	}
	return false
}

// Entry is one append-only row of the ledger
type Entry struct {
	Endpoint   string     `json:"endpoint"`
	ExternalID string     `json:"externalId,omitempty"`
	Status     Status     `json:"status"`
	HTTPStatus int        `json:"httpStatus,omitempty"`
	ResetAt    *time.Time `json:"resetAt,omitempty"`
	Message    string     `json:"message,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Window is the result of counting entries since a point in time
type Window struct {
	Count      int
	MaxResetAt *time.Time
}

// Snapshot is the client-facing view of the current window
type Snapshot struct {
	WindowMinutes int        `json:"windowMinutes"`
	Limit         int        `json:"limit"`
	Total         int        `json:"total"`
	RateLimited   int        `json:"rateLimited"`
	Remaining     int        `json:"remaining"`
	LastResetAt   *time.Time `json:"lastResetAt"`
}
