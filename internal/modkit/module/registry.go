package module

import (
	"sync"

	perr "postlens/internal/platform/errors"
	phttp "postlens/internal/platform/net/http"
)

// Info describes a registered module
type Info struct {
	Name     string   `json:"name"     example:"ingest"`
	Prefixes []string `json:"prefixes" example:"/posts,/feedback,/concepts"`
}

// Registry keeps modules in registration order
type Registry struct {
	mu    sync.RWMutex
	order []Module
	index map[string]Module
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{index: map[string]Module{}}
}

// Add registers m; names are unique
func (r *Registry) Add(mods ...Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mods {
		if _, dup := r.index[m.Name()]; dup {
			return perr.Newf(perr.ErrorCodeConflict, "module %q registered twice", m.Name())
		}
		r.index[m.Name()] = m
		r.order = append(r.order, m)
	}
	return nil
}

// Get looks a module up by name
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.index[name]
	return m, ok
}

// Describe lists every module with its route prefixes
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, Info{Name: m.Name(), Prefixes: m.Prefixes()})
	}
	return out
}

// MountAll mounts every module on router
func (r *Registry) MountAll(router phttp.Router) {
	r.mu.RLock()
	mods := append([]Module(nil), r.order...)
	r.mu.RUnlock()
	for _, m := range mods {
		m.MountRoutes(router)
	}
}

// Ports pulls a T from the module registered under name
func Ports[T any](r *Registry, name string) (T, bool) {
	m, ok := r.Get(name)
	if !ok {
		var zero T
		return zero, false
	}
	return PortsOf[T](m)
}
