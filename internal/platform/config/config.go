// Package config reads prefixed settings from the environment. May* accessors
// fall back to a default and warn on unparsable values; Must* accessors panic
// through the logger so a misconfigured binary stops at startup
package config

import (
	"strconv"
	"strings"
	"time"

	"postlens/internal/platform/config/raw"
	"postlens/internal/platform/logger"
)

// Conf is a prefixed view over the environment
type Conf struct{ raw.Conf }

// New reads the process environment
func New() Conf { return Conf{raw.New()} }

// FromMap reads fixed values instead of the environment
func FromMap(m map[string]string) Conf { return Conf{raw.From(raw.Map(m))} }

// Prefix narrows the view, e.g. cfg.Prefix("X_").MayString("BEARER_TOKEN", "")
func (c Conf) Prefix(p string) Conf { return Conf{c.Conf.Prefix(p)} }

func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	v, ok, err := raw.Parse(c.Conf, key, parse)
	if !ok {
		return def
	}
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", c.Key(key)).Interface("default", def).Msg("unparsable setting, using default")
		return def
	}
	return v
}

func must[T any](c Conf, key string, parse func(string) (T, error)) T {
	v, ok, err := raw.Parse(c.Conf, key, parse)
	switch {
	case !ok:
		logger.Get().Panic().Str("key", c.Key(key)).Msg("missing required setting")
	case err != nil:
		logger.Get().Panic().Err(err).Str("key", c.Key(key)).Msg("invalid required setting")
	}
	return v
}

func str(s string) (string, error) { return s, nil }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string { return must(c, key, str) }

// MayString returns def when key is unset or blank
func (c Conf) MayString(key, def string) string { return may(c, key, def, str) }

// MayInt returns def when key is unset or not an integer
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayBool accepts true/false, 1/0, yes/no and on/off
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, raw.ParseBool) }

// MayDuration returns def when key is unset or not a duration
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated list, dropping blanks
func (c Conf) MayCSV(key string, def []string) []string {
	out := may(c, key, nil, func(s string) ([]string, error) {
		var parts []string
		for p := range strings.SplitSeq(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return parts, nil
	})
	if len(out) == 0 {
		return def
	}
	return out
}

// MayAddr reads a listen address. A bare port such as 8080 becomes :8080
func (c Conf) MayAddr(key, def string) string {
	return may(c, key, def, func(s string) (string, error) {
		if _, err := strconv.Atoi(s); err == nil {
			return ":" + s, nil
		}
		return s, nil
	})
}
