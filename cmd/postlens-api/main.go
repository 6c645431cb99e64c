// @title         postlens API
// @version       0.1.0
// @description   Post ingestion and learning concept extraction
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os/signal"
	"syscall"

	"postlens/internal/adapters/llm"
	"postlens/internal/platform/config"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/platform/store"

	"postlens/internal/services/api"
	metahttp "postlens/internal/services/api/meta/http"
	ingestmod "postlens/internal/services/ingest/module"
	usagemod "postlens/internal/services/usage/module"
)

//go:generate go run github.com/swaggo/swag/v2/cmd/swag@v2.0.0-rc4 init --v3.1 -g main.go -d ./,../../internal -o ../../internal/services/api/docs --instanceName api --parseInternal

func main() {
	loaded, dotErr := config.LoadDotenv()

	root := config.New()
	apiCfg := root.Prefix("POSTLENS_API_")
	pgCfg := root.Prefix("POSTLENS_PGSQL_")
	chCfg := root.Prefix("POSTLENS_CLICKHOUSE_")

	l := logger.Get()
	if dotErr != nil {
		l.Warn().Err(dotErr).Msg("dotenv load failed")
	}
	if len(loaded) > 0 {
		l.Debug().Strs("files", loaded).Msg("dotenv loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			// the usage mirror is optional
			CH: store.CHConfig{
				Enabled:    chURL != "",
				URL:        chURL,
				ClientName: "postlens",
				ClientTag:  "api",
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	m := metrics.New()

	llmCfg := llm.FromConfig(root)
	ex, closeLLM, err := llm.Build(ctx, llmCfg, m)
	if err != nil {
		l.Panic().Err(err).Msg("llm.Build failed")
	}
	defer closeLLM()
	l.Info().Str("extractor", ex.String()).Msg("concept extractor ready")

	usageOpt := usagemod.FromConfig(root)
	ingestOpt := ingestmod.FromConfig(root)
	pipeline := metahttp.PipelineInfo{
		PrimaryConfigured: ingestmod.XAPIFromConfig(root).Token != "",
		CaptureConfigured: ingestmod.CaptureFromConfig(root).URL != "",
		Providers:         ex.Providers(),
		TightMode:         llmCfg.Tight,
		MaxConcepts:       ex.Max(),
		RateWindowMinutes: int(usageOpt.Window.Minutes()),
		RateLimit:         usageOpt.Limit,
		BatchWindowMs:     ingestOpt.BatchWindow.Milliseconds(),
	}

	// http server (reads POSTLENS_API_PORT)
	srv := phttp.NewServer(apiCfg)

	if _, err := api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			Metrics:        m,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			JWTSecret:      apiCfg.MustString("JWT_SECRET"),
			Extractor:      ex,
			Pipeline:       pipeline,
		},
	); err != nil {
		l.Panic().Err(err).Msg("api.Mount failed")
	}

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("api stopped")
}
