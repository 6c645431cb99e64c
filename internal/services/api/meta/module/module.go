// Package module mounts the /meta routes
package module

import (
	"time"

	"postlens/internal/modkit"
	"postlens/internal/modkit/httpkit"

	metahttp "postlens/internal/services/api/meta/http"
)

// Wiring is what the API hands the meta module
type Wiring struct {
	Pipeline metahttp.PipelineInfo
	Catalog  metahttp.Catalog
}

// Module serves liveness, readiness and build info
type Module struct {
	*modkit.Base
}

// New builds the meta module. PG and CH are probed by /meta/ready when they can be pinged
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	m := &Module{Base: modkit.NewBase("meta", "/meta", opts...)}
	w, _ := modkit.Wiring[Wiring](m.Base)

	checks := map[string]metahttp.Pinger{"pg": nil, "ch": nil}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		checks["pg"] = p
	}
	if p, ok := deps.CH.(metahttp.Pinger); ok {
		checks["ch"] = p
	}

	d := metahttp.Deps{
		ServiceName: "postlens-api",
		StartedAt:   time.Now(),
		Checks:      checks,
		Pipeline:    w.Pipeline,
		Catalog:     w.Catalog,
	}
	m.Group("", func(r httpkit.Router) { metahttp.Register(r, d) })
	return m
}

// WithWiring passes the pipeline summary and module catalog
func WithWiring(w Wiring) modkit.Option { return modkit.WithWiring(w) }
