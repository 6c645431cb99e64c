// Package module wires the ingestion orchestrator, its worker and the post routes
package module

import (
	"postlens/internal/adapters/capture"
	"postlens/internal/adapters/llm"
	"postlens/internal/adapters/xapi"
	"postlens/internal/modkit"
	"postlens/internal/modkit/httpkit"
	"postlens/internal/services/ingest/domain"

	ingesthttp "postlens/internal/services/ingest/http"
	"postlens/internal/services/ingest/repo"
	"postlens/internal/services/ingest/service"
	usagemod "postlens/internal/services/usage/module"
)

// Ports exposed by the ingest module
type Ports struct {
	Service domain.ServicePort
	Worker  domain.WorkerPort
}

// Module is the ingest module
type Module struct {
	*modkit.Base
	svc *service.Svc
}

// New builds the orchestrator. Collaborators missing from WithWiring are
// built from config, and the ledger falls back to a private usage module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	base := modkit.NewBase("ingest", "/posts", opts...)
	w, _ := modkit.Wiring[Wiring](base)

	c := service.Collaborators{
		Primary:   w.Primary,
		Capture:   w.Capture,
		Extractor: w.Extractor,
		Ledger:    w.Ledger,
		Metrics:   deps.Metrics,
	}
	if c.Ledger == nil {
		c.Ledger = usagemod.New(deps).Service()
	}
	if c.Primary == nil {
		c.Primary = xapi.NewClient(XAPIFromConfig(deps.Cfg))
	}
	if c.Capture == nil {
		c.Capture = capture.NewClient(CaptureFromConfig(deps.Cfg))
	}
	if c.Extractor == nil {
		c.Extractor = llm.New(llm.Options{Metrics: deps.Metrics})
	}

	m := &Module{Base: base, svc: service.New(deps.PG, repo.NewPG(), c, FromConfig(deps.Cfg))}
	m.Expose(Ports{Service: m.svc, Worker: m.svc})
	m.Group("", func(r httpkit.Router) { ingesthttp.Register(r, m.svc) })
	m.Group("/feedback", func(r httpkit.Router) { ingesthttp.RegisterFeedback(r, m.svc) })
	m.Group("/concepts", func(r httpkit.Router) { ingesthttp.RegisterConcepts(r, m.svc) })
	return m
}

// Service returns the concrete orchestrator
func (m *Module) Service() *service.Svc { return m.svc }
