// Package http serves /meta: liveness, dependency readiness, build info and
// the wiring of this process
package http

import (
	"context"
	"net/http"
	"slices"
	"time"

	"postlens/internal/core/version"
	"postlens/internal/modkit/httpkit"
	"postlens/internal/modkit/module"

	"golang.org/x/sync/errgroup"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency readiness can probe
type Pinger interface {
	Ping(context.Context) error
}

// Catalog lists the mounted modules
type Catalog interface {
	Describe() []module.Info
}

// Deps are the handler dependencies. A nil Pinger in Checks is reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      map[string]Pinger
	Pipeline    PipelineInfo
	Catalog     Catalog
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{Deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/pipeline", h.pipeline)
}

type handlers struct {
	Deps
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"postlens-api"`
	Started string `json:"started" example:"2026-03-01T09:00:00Z"`
	Now     string `json:"now"     example:"2026-03-01T09:05:00Z"`
}

// ReadyCheck is one probed dependency. Status is ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	TookMs int64  `json:"took_ms"         example:"3"`
	Error  string `json:"error,omitempty" example:"connection refused"`
}

// ReadyResponse is ok when every check passed, degraded when some were
// skipped and fail when any failed
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-03-01T09:05:00Z"`
}

// ServiceResponse reports uptime and the mounted modules
type ServiceResponse struct {
	Name    string        `json:"name"    example:"postlens-api"`
	Started string        `json:"started" example:"2026-03-01T09:00:00Z"`
	Uptime  int64         `json:"uptime"  example:"300"`
	Modules []module.Info `json:"modules"`
}

// PipelineInfo reports which fetchers and extractors are live
type PipelineInfo struct {
	PrimaryConfigured bool     `json:"primary_configured"  example:"true"`
	CaptureConfigured bool     `json:"capture_configured"  example:"false"`
	Providers         []string `json:"providers"           example:"openai,gemini"`
	TightMode         bool     `json:"tight_mode"          example:"false"`
	MaxConcepts       int      `json:"max_concepts"        example:"8"`
	RateWindowMinutes int      `json:"rate_window_minutes" example:"15"`
	RateLimit         int      `json:"rate_limit"          example:"50"`
	BatchWindowMs     int64    `json:"batch_window_ms"     example:"2000"`
}

// PipelineResponse pairs the pipeline wiring with build info
type PipelineResponse struct {
	Pipeline PipelineInfo      `json:"pipeline"`
	Build    version.BuildInfo `json:"build"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.ServiceName, Started: stamp(h.StartedAt), Now: stamp(time.Now())}, nil
}

// @Summary Readiness with dependency pings
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	slices.Sort(names)

	checks := make([]ReadyCheck, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			checks[i] = probe(ctx, name, h.Checks[name])
			return nil
		})
	}
	_ = g.Wait()

	return ReadyResponse{Status: overall(checks), Checks: checks, Now: stamp(time.Now())}, nil
}

func probe(ctx context.Context, name string, p Pinger) ReadyCheck {
	c := ReadyCheck{Name: name, Status: "skipped"}
	if p == nil {
		return c
	}
	start := time.Now()
	err := p.Ping(ctx)
	c.TookMs = time.Since(start).Milliseconds()
	if err != nil {
		c.Status, c.Error = "fail", err.Error()
		return c
	}
	c.Status = "ok"
	return c
}

func overall(checks []ReadyCheck) string {
	status := "ok"
	for _, c := range checks {
		switch c.Status {
		case "fail":
			return "fail"
		case "skipped":
			status = "degraded"
		}
	}
	return status
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(), nil
}

// @Summary Uptime and mounted modules
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(*http.Request) (any, error) {
	resp := ServiceResponse{
		Name:    h.ServiceName,
		Started: stamp(h.StartedAt),
		Uptime:  int64(time.Since(h.StartedAt) / time.Second),
		Modules: []module.Info{},
	}
	if h.Catalog != nil {
		resp.Modules = h.Catalog.Describe()
	}
	return resp, nil
}

// @Summary Fetchers, extractor providers and limits in effect
// @Tags Meta
// @Produce json
// @Success 200 {object} PipelineResponse
// @Router /meta/pipeline [get]
func (h *handlers) pipeline(*http.Request) (any, error) {
	p := h.Pipeline
	if p.Providers == nil {
		p.Providers = []string{}
	}
	return PipelineResponse{Pipeline: p, Build: version.For(h.ServiceName)}, nil
}
