package module

import (
	"postlens/internal/platform/config"
	"postlens/internal/services/usage/service"
)

// Options controls the primary API window
type Options = service.Config

// FromConfig reads X_RATE_WINDOW and X_RATE_LIMIT
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("X_")
	return Options{
		Window: c.MayDuration("RATE_WINDOW", service.DefaultWindow),
		Limit:  c.MayInt("RATE_LIMIT", service.DefaultLimit),
	}
}
