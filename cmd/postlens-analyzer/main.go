package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"postlens/internal/adapters/llm"
	"postlens/internal/modkit"
	"postlens/internal/modkit/module"
	"postlens/internal/platform/config"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
	"postlens/internal/platform/store"

	ingestmod "postlens/internal/services/ingest/module"
	usagemod "postlens/internal/services/usage/module"
)

func main() {
	_, _ = config.LoadDotenv()

	fMode := flag.String("mode", "worker", "analyzer mode: worker | once")
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("POSTLENS_PGSQL_")
	chCfg := root.Prefix("POSTLENS_CLICKHOUSE_")

	l := logger.Named("analyzer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientName: "postlens",
			ClientTag:  "analyzer",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	m := metrics.New()
	ex, closeLLM, err := llm.Build(ctx, llm.FromConfig(root), m)
	if err != nil {
		l.Panic().Err(err).Msg("llm.Build failed")
	}
	defer closeLLM()

	deps := modkit.Deps{
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Metrics: m,
	}

	usage := usagemod.New(deps)
	ingest := ingestmod.New(deps, ingestmod.WithWiring(ingestmod.Wiring{
		Ledger:    module.MustPortsOf[usagemod.Ports](usage).Service,
		Extractor: ex,
	}))

	ports := module.MustPortsOf[ingestmod.Ports](ingest)
	l.Info().Str("mode", *fMode).Str("extractor", ex.String()).Msg("analyzer starting")

	switch *fMode {
	case "worker":
		// runs until SIGINT/SIGTERM
		if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Fatal().Err(err).Msg("analyzer worker failed")
		}

	case "once":
		n, err := ports.Worker.RunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("analyzer pass failed")
		}
		l.Info().Int("leased", n).Msg("analyzer pass done")

	default:
		l.Panic().Str("mode", *fMode).Msg("unknown analyzer mode")
	}
}
