package llm

import (
	"context"
	"fmt"

	"postlens/internal/core/concepts"
	"postlens/internal/core/lexicon"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
)

const (
	// TightMax caps concepts per post in tight mode
	TightMax = 3

	// WideMax caps concepts per post otherwise
	WideMax = 8
)

// Fallback reasons recorded in metrics
const (
	ReasonNoProvider = "no_provider"
	ReasonProvider   = "provider_error"
	ReasonDecode     = "decode_error"
	ReasonEmpty      = "empty_after_sanitize"
)

// Options configures an Extractor
type Options struct {
	// Providers in priority order; nil entries are skipped
	Providers []Provider
	Lexicon   *lexicon.Lexicon
	Tight     bool
	Metrics   *metrics.Metrics
}

// Extractor produces concepts for a post and never fails
type Extractor struct {
	providers []Provider
	san       concepts.Sanitizer
	lex       *lexicon.Lexicon
	tight     bool
	m         *metrics.Metrics
	log       logger.Logger
}

// New builds an Extractor
func New(o Options) *Extractor {
	if o.Lexicon == nil {
		o.Lexicon = lexicon.Default()
	}
	ps := make([]Provider, 0, len(o.Providers))
	for _, p := range o.Providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Extractor{
		providers: ps,
		san:       concepts.Sanitizer{Lex: o.Lexicon},
		lex:       o.Lexicon,
		tight:     o.Tight,
		m:         o.Metrics,
		log:       *logger.Named("llm"),
	}
}

// Max is the per post concept cap for the configured mode
func (e *Extractor) Max() int {
	if e.tight {
		return TightMax
	}
	return WideMax
}

// Providers lists configured provider names in priority order
func (e *Extractor) Providers() []string {
	out := make([]string, 0, len(e.providers))
	for _, p := range e.providers {
		out = append(out, p.Name())
	}
	return out
}

// Extract asks each provider in turn and returns the first answer that survives sanitizing.
// When none does, the deterministic extractor answers; if sanitizing empties that too, its
// unsanitized output is returned
func (e *Extractor) Extract(ctx context.Context, text string, avoid []string) concepts.Extraction {
	if len(avoid) > concepts.MaxAvoid {
		avoid = avoid[:concepts.MaxAvoid]
	}
	max := e.Max()
	req := Request{Text: text, Avoid: avoid, Ontology: e.lex.Ontology(), Tight: e.tight}

	reason := ReasonNoProvider
	for _, p := range e.providers {
		ex, why, err := e.try(ctx, p, req, avoid, max)
		if err == nil {
			return ex
		}
		reason = why
		e.m.ProviderFailure(p.Name(), why)
		logger.C(ctx).Warn().
			Err(err).
			Str("provider", p.Name()).
			Str("reason", why).
			Msg("extraction failed")
	}

	e.m.Fallback(reason)
	det := e.san.Deterministic(text, concepts.DefaultK)
	clean := e.san.Sanitize(det.Concepts, avoid, max)
	logger.C(ctx).Debug().
		Str("reason", reason).
		Int("raw", len(det.Concepts)).
		Int("kept", len(clean)).
		Msg("deterministic extraction")
	if len(clean) == 0 {
		return det
	}
	return concepts.Extraction{Concepts: clean, AuthorHandle: det.AuthorHandle}
}

// try runs one provider end to end; a panic counts as a provider failure
func (e *Extractor) try(ctx context.Context, p Provider, req Request, avoid []string, max int) (ex concepts.Extraction, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex, reason = concepts.Extraction{}, ReasonProvider
			err = perr.Newf(perr.ErrorCodeExtraction, "provider %s panicked: %v", p.Name(), r)
		}
	}()

	raw, err := p.Extract(ctx, req)
	if err != nil {
		return concepts.Extraction{}, ReasonProvider, err
	}
	dec, err := Decode(raw)
	if err != nil {
		return concepts.Extraction{}, ReasonDecode, err
	}
	if len(dec.Concepts) == 0 {
		return concepts.Extraction{}, ReasonEmpty, perr.Newf(perr.ErrorCodeExtraction, "%s returned no concepts", p.Name())
	}
	clean := e.san.Sanitize(dec.Concepts, avoid, max)
	if len(clean) == 0 {
		return concepts.Extraction{}, ReasonEmpty, perr.Newf(perr.ErrorCodeExtraction,
			"%s concepts all rejected (%d in)", p.Name(), len(dec.Concepts))
	}
	return concepts.Extraction{Concepts: clean, AuthorHandle: dec.AuthorHandle}, "", nil
}

// String is used in logs and the CLI
func (e *Extractor) String() string {
	return fmt.Sprintf("extractor(providers=%v max=%d)", e.Providers(), e.Max())
}
