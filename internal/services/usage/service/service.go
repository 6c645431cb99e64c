// Package service implements the usage ledger and the advisory rate check
package service

import (
	"context"
	"time"

	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
	ptime "postlens/internal/platform/time"
	"postlens/internal/services/usage/domain"
	urepo "postlens/internal/services/usage/repo"
)

// Defaults for the rolling window on primary API calls
const (
	DefaultWindow = 15 * time.Minute
	DefaultLimit  = 50
)

// Config controls the window
type Config struct {
	Window time.Duration
	Limit  int
}

// Svc implements domain.ServicePort.
// The check does not reserve capacity: two imports racing past Check both
// proceed and both land in the ledger. The upstream quota is the real backstop
type Svc struct {
	DB   repokit.TxRunner
	Repo repokit.Binder[urepo.Repo]

	cfg     Config
	metrics *metrics.Metrics
}

var _ domain.ServicePort = (*Svc)(nil)

// New constructs the ledger service
func New(db repokit.TxRunner, binder repokit.Binder[urepo.Repo], cfg Config, m *metrics.Metrics) *Svc {
	if db == nil {
		panic("usage.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("usage.Service requires a non-nil repo Binder")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Svc{DB: db, Repo: binder, cfg: cfg, metrics: m}
}

// Config returns the effective window settings
func (s *Svc) Config() Config { return s.cfg }

// Log appends one attempt to the ledger
func (s *Svc) Log(ctx context.Context, e domain.Entry) error {
	if !e.Status.Valid() {
		return perr.InvalidArgf("unknown usage status %q", e.Status)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.Repo.Bind(s.DB).Append(ctx, e); err != nil {
		return err
	}
	s.metrics.XRequest(string(e.Status))
	logger.C(ctx).Debug().
		Str("endpoint", e.Endpoint).
		Str("external_id", e.ExternalID).
		Str("status", string(e.Status)).
		Int("http_status", e.HTTPStatus).
		Msg("x request logged")
	return nil
}

// CountRecent returns how many attempts happened at or after since
func (s *Svc) CountRecent(ctx context.Context, since time.Time) (domain.Window, error) {
	return s.Repo.Bind(s.DB).CountSince(ctx, since)
}

// Check fails with TooManyRequests when the window is already full
func (s *Svc) Check(ctx context.Context, now time.Time) error {
	w, err := s.CountRecent(ctx, now.Add(-s.cfg.Window))
	if err != nil {
		return err
	}
	if w.Count < s.cfg.Limit {
		return nil
	}
	return perr.RateLimited(ptime.Value(w.MaxResetAt), "x api window exhausted: %d requests in the last %s", w.Count, s.cfg.Window)
}

// Snapshot reports the current window for display
func (s *Svc) Snapshot(ctx context.Context, now time.Time) (domain.Snapshot, error) {
	since := now.Add(-s.cfg.Window)
	out := domain.Snapshot{
		WindowMinutes: int(s.cfg.Window / time.Minute),
		Limit:         s.cfg.Limit,
	}
	err := repokit.InTx(ctx, s.DB, s.Repo, func(r urepo.Repo) error {
		w, err := r.CountSince(ctx, since)
		if err != nil {
			return err
		}
		by, err := r.Breakdown(ctx, since)
		if err != nil {
			return err
		}
		out.Total = w.Count
		out.LastResetAt = w.MaxResetAt
		out.RateLimited = by[domain.StatusRateLimited]
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	out.Remaining = max(0, out.Limit-out.Total)
	return out, nil
}
