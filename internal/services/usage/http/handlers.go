// Package http provides HTTP transport for the usage ledger
package http

import (
	stdhttp "net/http"
	"time"

	"postlens/internal/modkit/httpkit"
	"postlens/internal/services/usage/domain"
)

// Register mounts the usage endpoints
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s, now: time.Now}
	httpkit.Get(r, "/", h.snapshot)
}

type handlers struct {
	svc domain.ServicePort
	now func() time.Time
}

// swagger:route GET /usage Usage usageSnapshot
// @Summary Primary API usage in the current window
// @Tags Usage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Snapshot "ok"
// @Failure 401 {object} httpkit.Envelope "unauthorized"
// @Router /usage [get]
func (h *handlers) snapshot(r *stdhttp.Request) (any, error) {
	return h.svc.Snapshot(r.Context(), h.now())
}
