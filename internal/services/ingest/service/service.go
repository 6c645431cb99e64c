// Package service implements the ingestion orchestrator: import, analyze and the read side
package service

import (
	"context"
	"time"

	"postlens/internal/adapters/capture"
	"postlens/internal/adapters/xapi"
	"postlens/internal/core/concepts"
	"postlens/internal/core/suggest"
	"postlens/internal/modkit/repokit"
	"postlens/internal/platform/metrics"

	"postlens/internal/services/ingest/domain"
	irepo "postlens/internal/services/ingest/repo"
	udom "postlens/internal/services/usage/domain"
)

// Fetcher is the primary content API
type Fetcher interface {
	Configured() bool
	FetchPost(ctx context.Context, id string) (xapi.Post, xapi.Attempt, error)
}

// Capturer is the browser capture fallback
type Capturer interface {
	Configured() bool
	Capture(ctx context.Context, url string, screenshotOnly bool) (capture.Result, error)
}

// Extractor turns post text into concepts and never fails
type Extractor interface {
	Extract(ctx context.Context, text string, avoid []string) concepts.Extraction
}

// Config controls the orchestrator and its worker
type Config struct {
	BatchWindow time.Duration
	ListLimit   int
	AvoidLimit  int

	Worker WorkerConfig
}

// WorkerConfig controls the analysis loop
type WorkerConfig struct {
	Interval    time.Duration
	Batch       int
	Concurrency int
	LeaseFor    time.Duration
	RetryBase   time.Duration
	MaxAttempts int
}

// Collaborators are the adapters the orchestrator drives
type Collaborators struct {
	Primary   Fetcher
	Capture   Capturer
	Extractor Extractor
	Ledger    udom.LedgerPort
	Metrics   *metrics.Metrics
}

// Svc implements domain.ServicePort and domain.WorkerPort
type Svc struct {
	DB   repokit.TxRunner
	Repo repokit.Binder[irepo.Repo]

	primary   Fetcher
	capture   Capturer
	extractor Extractor
	ledger    udom.LedgerPort
	metrics   *metrics.Metrics

	cfg Config
	now func() time.Time
}

var (
	_ domain.ServicePort = (*Svc)(nil)
	_ domain.WorkerPort  = (*Svc)(nil)
)

// New constructs the orchestrator
func New(db repokit.TxRunner, binder repokit.Binder[irepo.Repo], c Collaborators, cfg Config) *Svc {
	if db == nil {
		panic("ingest.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("ingest.Service requires a non-nil repo Binder")
	}
	if c.Extractor == nil {
		panic("ingest.Service requires an Extractor")
	}
	return &Svc{
		DB:        db,
		Repo:      binder,
		primary:   c.Primary,
		capture:   c.Capture,
		extractor: c.Extractor,
		ledger:    c.Ledger,
		metrics:   c.Metrics,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

func (c Config) withDefaults() Config {
	if c.BatchWindow <= 0 {
		c.BatchWindow = suggest.DefaultWindow
	}
	if c.ListLimit <= 0 {
		c.ListLimit = 50
	}
	if c.AvoidLimit <= 0 || c.AvoidLimit > concepts.MaxAvoid {
		c.AvoidLimit = concepts.MaxAvoid
	}
	w := &c.Worker
	if w.Interval <= 0 {
		w.Interval = 2 * time.Second
	}
	if w.Batch <= 0 {
		w.Batch = 8
	}
	if w.Concurrency <= 0 {
		w.Concurrency = 2
	}
	if w.LeaseFor <= 0 {
		w.LeaseFor = 2 * time.Minute
	}
	if w.RetryBase <= 0 {
		w.RetryBase = 5 * time.Second
	}
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = 5
	}
	return c
}

// Config returns the effective configuration
func (s *Svc) Config() Config { return s.cfg }

func (s *Svc) current(items []domain.SuggestionView) []domain.SuggestionView {
	return suggest.SelectCurrentBatch(items, func(v domain.SuggestionView) time.Time { return v.CreatedAt }, s.cfg.BatchWindow)
}
