// Package module holds the module contract, ports lookup and the registry the
// API mounts from
package module

import (
	"reflect"

	phttp "postlens/internal/platform/net/http"
)

// Module is what a feature package hands to the API
type Module interface {
	Name() string
	Prefixes() []string
	Ports() any
	MountRoutes(r phttp.Router)
}

// PortsOf finds a T in m's ports: the bundle itself or one of its exported fields
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return zero, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok := f.Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf panics when m has no T; wiring mistakes surface at startup
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		panic("module " + m.Name() + ": no port of type " + reflect.TypeFor[T]().String())
	}
	return v
}
