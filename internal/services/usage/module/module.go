// Package module wires the usage ledger, exposes it as a port and serves /usage
package module

import (
	"postlens/internal/modkit"
	"postlens/internal/modkit/httpkit"
	"postlens/internal/services/usage/domain"

	usagehttp "postlens/internal/services/usage/http"
	"postlens/internal/services/usage/repo"
	"postlens/internal/services/usage/service"
)

// Ports exposes the ledger to other modules
type Ports struct {
	Service domain.ServicePort
}

// Module is the usage module
type Module struct {
	*modkit.Base
	svc *service.Svc
}

// New builds the ledger. ClickHouse, when present, mirrors every ledger row
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	binder := repo.NewMirrored(repo.NewPG(), deps.CH)
	m := &Module{
		Base: modkit.NewBase("usage", "/usage", opts...),
		svc:  service.New(deps.PG, binder, FromConfig(deps.Cfg), deps.Metrics),
	}
	m.Expose(Ports{Service: m.svc})
	m.Group("", func(r httpkit.Router) { usagehttp.Register(r, m.svc) })
	return m
}

// Service returns the concrete ledger
func (m *Module) Service() *service.Svc { return m.svc }
