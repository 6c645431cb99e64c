package module

import (
	"time"

	"postlens/internal/adapters/capture"
	"postlens/internal/adapters/xapi"
	"postlens/internal/core/concepts"
	"postlens/internal/core/suggest"
	"postlens/internal/modkit"
	"postlens/internal/platform/config"

	"postlens/internal/services/ingest/service"
	udom "postlens/internal/services/usage/domain"
)

// Options are the orchestrator and worker knobs
type Options = service.Config

// FromConfig reads INGEST_* and ANALYZER_* values
func FromConfig(cfg config.Conf) Options {
	in := cfg.Prefix("INGEST_")
	an := cfg.Prefix("ANALYZER_")
	return Options{
		BatchWindow: in.MayDuration("BATCH_WINDOW", suggest.DefaultWindow),
		ListLimit:   in.MayInt("LIST_LIMIT", 50),
		AvoidLimit:  in.MayInt("AVOID_LIMIT", concepts.MaxAvoid),
		Worker: service.WorkerConfig{
			Interval:    an.MayDuration("INTERVAL", 2*time.Second),
			Batch:       an.MayInt("BATCH", 8),
			Concurrency: an.MayInt("CONCURRENCY", 2),
			LeaseFor:    an.MayDuration("LEASE", 2*time.Minute),
			RetryBase:   an.MayDuration("RETRY_BASE", 5*time.Second),
			MaxAttempts: an.MayInt("MAX_ATTEMPTS", 5),
		},
	}
}

// XAPIFromConfig reads X_BEARER_TOKEN and X_BASE_URL
func XAPIFromConfig(cfg config.Conf) xapi.Options {
	c := cfg.Prefix("X_")
	return xapi.Options{
		Token:   c.MayString("BEARER_TOKEN", ""),
		BaseURL: c.MayString("BASE_URL", ""),
		Timeout: c.MayDuration("TIMEOUT", 0),
	}
}

// CaptureFromConfig reads CAPTURE_URL, CAPTURE_TOKEN and CAPTURE_TIMEOUT
func CaptureFromConfig(cfg config.Conf) capture.Options {
	c := cfg.Prefix("CAPTURE_")
	return capture.Options{
		URL:     c.MayString("URL", ""),
		Token:   c.MayString("TOKEN", ""),
		Timeout: c.MayDuration("TIMEOUT", 60*time.Second),
	}
}

// Wiring carries the collaborators other modules and mains provide.
// A nil Extractor falls back to the deterministic one
type Wiring struct {
	Ledger    udom.LedgerPort
	Extractor service.Extractor

	// Primary and Capture override the clients built from config (tests)
	Primary service.Fetcher
	Capture service.Capturer
}

// WithWiring passes the collaborators to New
func WithWiring(w Wiring) modkit.Option { return modkit.WithWiring(w) }
