// Package api assembles the HTTP API from the feature modules
package api

import (
	"postlens/internal/platform/config"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/platform/store"

	"postlens/internal/modkit"
	"postlens/internal/modkit/httpkit"
	"postlens/internal/modkit/module"
	"postlens/internal/modkit/swaggerkit"

	metahttp "postlens/internal/services/api/meta/http"
	metamod "postlens/internal/services/api/meta/module"
	ingestmod "postlens/internal/services/ingest/module"
	ingestsvc "postlens/internal/services/ingest/service"
	usagemod "postlens/internal/services/usage/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// JWTSecret verifies bearer tokens on every data route
	JWTSecret string

	// Extractor is the LLM chain; nil keeps the deterministic extractor
	Extractor ingestsvc.Extractor

	// Pipeline is reported on /meta/pipeline
	Pipeline metahttp.PipelineInfo
}

// Mount registers every module and mounts them under /api/v1, with docs,
// profiler and metrics beside it. It fails when two modules share a name
func Mount(r phttp.Router, opt Options) (*module.Registry, error) {
	deps := modkit.Deps{Cfg: opt.Config, Metrics: opt.Metrics}
	if opt.Store != nil {
		deps.PG, deps.CH = opt.Store.PG, opt.Store.CH
	}
	auth := modkit.WithMiddlewares(httpkit.Auth(httpkit.NewPortFunc(httpkit.HS256(opt.JWTSecret))))
	reg := module.NewRegistry()

	// ingest shares the usage ledger so imports and /usage see the same window
	usage := usagemod.New(deps, auth)
	ingest := ingestmod.New(deps, auth, ingestmod.WithWiring(ingestmod.Wiring{
		Ledger:    module.MustPortsOf[usagemod.Ports](usage).Service,
		Extractor: opt.Extractor,
	}))
	meta := metamod.New(deps, metamod.WithWiring(metamod.Wiring{Pipeline: opt.Pipeline, Catalog: reg}))

	if err := reg.Add(meta, usage, ingest); err != nil {
		return nil, err
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.MayCSV("CORS_ORIGINS", nil)...), reg.MountAll)
	swaggerkit.Mount(r, opt.EnableSwagger, func() []swaggerkit.Tag {
		var tags []swaggerkit.Tag
		for _, m := range reg.Describe() {
			tags = append(tags, swaggerkit.Tag{Name: m.Name, Prefixes: m.Prefixes})
		}
		return tags
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.EnableMetrics && opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}

	if opt.Logger != nil {
		for _, m := range reg.Describe() {
			opt.Logger.Info().Str("module", m.Name).Strs("prefixes", m.Prefixes).Msg("module mounted")
		}
	}
	return reg, nil
}
