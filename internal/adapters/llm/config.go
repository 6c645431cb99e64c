package llm

import (
	"context"

	"postlens/internal/platform/config"
	"postlens/internal/platform/metrics"
)

// Config is the LLM_* environment surface
type Config struct {
	OpenAI OpenAIOptions
	Gemini GeminiOptions
	Tight  bool
}

// FromConfig reads LLM_* values from process config/env
func FromConfig(cfg config.Conf) Config {
	lc := cfg.Prefix("LLM_")
	return Config{
		OpenAI: OpenAIOptions{
			APIKey:  lc.MayString("OPENAI_API_KEY", ""),
			Model:   lc.MayString("OPENAI_MODEL", defaultOpenAIModel),
			BaseURL: lc.MayString("OPENAI_BASE_URL", ""),
			Timeout: lc.MayDuration("OPENAI_TIMEOUT", defaultOpenAITimeout),
		},
		Gemini: GeminiOptions{
			APIKey:  lc.MayString("GEMINI_API_KEY", ""),
			Model:   lc.MayString("GEMINI_MODEL", defaultGeminiModel),
			Timeout: lc.MayDuration("GEMINI_TIMEOUT", defaultGeminiTimeout),
		},
		Tight: lc.MayBool("TIGHT", false),
	}
}

// Build constructs the Extractor with OpenAI ahead of Gemini
// the returned close func releases provider clients
func Build(ctx context.Context, c Config, m *metrics.Metrics) (*Extractor, func(), error) {
	var ps []Provider
	if p := NewOpenAI(c.OpenAI); p != nil {
		ps = append(ps, p)
	}
	g, err := NewGemini(ctx, c.Gemini)
	if err != nil {
		return nil, func() {}, err
	}
	if g != nil {
		ps = append(ps, g)
	}
	ex := New(Options{Providers: ps, Tight: c.Tight, Metrics: m})
	return ex, func() { _ = g.Close() }, nil
}
