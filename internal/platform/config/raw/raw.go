// Package raw reads prefixed settings without logging. The logger configures
// itself from it, and config builds its logging accessors on top of it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Source looks a fully qualified key up
type Source func(key string) (string, bool)

// Map is a Source over fixed values, for tests and embedded defaults
func Map(m map[string]string) Source {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// Conf is a prefixed view over a Source
type Conf struct {
	prefix string
	src    Source
}

// New reads the process environment
func New() Conf { return Conf{src: os.LookupEnv} }

// From reads src
func From(src Source) Conf { return Conf{src: src} }

// Prefix narrows the view, so Prefix("LOG_").Get("LEVEL") reads LOG_LEVEL
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, src: c.src} }

// Key is the fully qualified name of k
func (c Conf) Key(k string) string { return c.prefix + k }

// Lookup returns the trimmed value. Blank counts as unset
func (c Conf) Lookup(k string) (string, bool) {
	if c.src == nil {
		return "", false
	}
	v, ok := c.src(c.Key(k))
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Get is Lookup with a default
func (c Conf) Get(k, def string) string {
	if v, ok := c.Lookup(k); ok {
		return v
	}
	return def
}

// GetBool accepts strconv bools plus yes/no and on/off; anything else is def
func (c Conf) GetBool(k string, def bool) bool {
	v, ok, err := Parse(c, k, ParseBool)
	if !ok || err != nil {
		return def
	}
	return v
}

// GetInt returns def for a missing or non-integer value
func (c Conf) GetInt(k string, def int) int {
	v, ok, err := Parse(c, k, strconv.Atoi)
	if !ok || err != nil {
		return def
	}
	return v
}

// Parse runs parse over the value of k. ok is false when k is unset
func Parse[T any](c Conf, k string, parse func(string) (T, error)) (v T, ok bool, err error) {
	s, ok := c.Lookup(k)
	if !ok {
		return v, false, nil
	}
	v, err = parse(s)
	return v, true, err
}

// ParseBool extends strconv.ParseBool with yes/no and on/off
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
