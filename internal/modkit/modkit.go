// Package modkit wires feature modules into the API. A module embeds Base,
// declares its route groups and exposes a ports bundle other modules and the
// binaries pull collaborators from
package modkit

import (
	"net/http"

	"postlens/internal/modkit/httpkit"
	"postlens/internal/modkit/repokit"
	"postlens/internal/platform/config"
	"postlens/internal/platform/metrics"
	"postlens/internal/platform/store"
)

// Deps are the shared stores and knobs every module is built from
type Deps struct {
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Metrics is optional; a nil value records nothing
	Metrics *metrics.Metrics
}

// Option tweaks how a module is built
type Option func(*settings)

type settings struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	wiring any
}

// WithName overrides the module name used by the registry
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithPrefix moves the module's main route group
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithMiddlewares runs mw, in order, in front of every group of the module
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(s *settings) { s.mw = append(s.mw, mw...) }
}

// WithWiring hands a module-specific collaborator bundle to its constructor
func WithWiring(v any) Option {
	return func(s *settings) { s.wiring = v }
}

// Wiring returns the bundle passed with WithWiring when it is a T
func Wiring[T any](b *Base) (T, bool) {
	v, ok := b.wiring.(T)
	return v, ok
}

type group struct {
	prefix string
	mount  func(httpkit.Router)
}

// Base carries a module's name, middleware, route groups and ports
type Base struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	wiring any
	groups []group
	ports  any
}

// NewBase applies opts over the module's default name and prefix
func NewBase(name, prefix string, opts ...Option) *Base {
	s := settings{name: name, prefix: prefix}
	for _, o := range opts {
		o(&s)
	}
	return &Base{
		name:   s.name,
		prefix: s.prefix,
		mw:     append([]func(http.Handler) http.Handler(nil), s.mw...),
		wiring: s.wiring,
	}
}

// Group adds a route group under prefix; an empty prefix is the module's own
func (b *Base) Group(prefix string, mount func(httpkit.Router)) {
	if prefix == "" {
		prefix = b.prefix
	}
	b.groups = append(b.groups, group{prefix: prefix, mount: mount})
}

// Expose sets the ports bundle
func (b *Base) Expose(ports any) { b.ports = ports }

// Name is the registry key
func (b *Base) Name() string { return b.name }

// Ports is the bundle set by Expose
func (b *Base) Ports() any { return b.ports }

// Prefixes lists the mounted groups in declaration order
func (b *Base) Prefixes() []string {
	out := make([]string, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g.prefix)
	}
	return out
}

// MountRoutes mounts every group on r behind the module middleware
func (b *Base) MountRoutes(r httpkit.Router) {
	for _, g := range b.groups {
		r.Route(g.prefix, func(rr httpkit.Router) {
			rr.Use(b.mw...)
			g.mount(rr)
		})
	}
}
