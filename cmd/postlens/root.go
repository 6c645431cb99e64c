package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"postlens/internal/adapters/llm"
	"postlens/internal/core/resolver"
	"postlens/internal/core/version"
	"postlens/internal/modkit"
	"postlens/internal/modkit/httpkit"
	"postlens/internal/modkit/module"
	"postlens/internal/platform/config"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/metrics"
	"postlens/internal/platform/store"
	"postlens/internal/platform/store/schema"

	ingestmod "postlens/internal/services/ingest/module"
	usagemod "postlens/internal/services/usage/module"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "postlens",
		Short:         "Operator tooling for the postlens pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		resolveCmd(),
		extractCmd(),
		importCmd(),
		analyzeCmd(),
		usageCmd(),
		migrateCmd(),
		tokenCmd(),
		versionCmd(),
	)
	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Show the post id and handle hint a URL resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := resolver.Resolve(args[0])
			if !res.OK {
				return fmt.Errorf("not a supported post url: %s", args[0])
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func extractCmd() *cobra.Command {
	var (
		text  string
		avoid []string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the concept extractor on text (reads stdin when --text is empty or -)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" || text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text to extract from")
			}
			ctx := cmd.Context()
			ex, closeLLM, err := llm.Build(ctx, llm.FromConfig(config.New()), nil)
			if err != nil {
				return err
			}
			defer closeLLM()
			return printJSON(cmd.OutOrStdout(), ex.Extract(ctx, text, avoid))
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "post text, - for stdin")
	cmd.Flags().StringSliceVar(&avoid, "avoid", nil, "concept names to steer away from")
	return cmd
}

func importCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Import a post by URL for an owner, the same way POST /posts/import does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, p ingestmod.Ports) error {
				res, err := p.Service.Import(ctx, owner, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <post-id>",
		Short: "Analyze one post now, bypassing the worker queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIngest(cmd.Context(), func(ctx context.Context, p ingestmod.Ports) error {
				res, err := p.Service.Analyze(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Print the primary API usage window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, deps, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			snap, err := usagemod.New(deps).Service().Snapshot(ctx, time.Now())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema and, when configured, the clickhouse mirror table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			if err := schema.Apply(ctx, st.PG); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "postgres schema applied")
			if st.CH != nil {
				if err := schema.ApplyClickhouse(ctx, st.CH); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "clickhouse schema applied")
			}
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token signed with POSTLENS_API_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.New().Prefix("POSTLENS_API_").MayString("JWT_SECRET", "")
			if secret == "" {
				return fmt.Errorf("POSTLENS_API_JWT_SECRET is not set")
			}
			tok, err := httpkit.IssueHS256(secret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), version.For("postlens"))
		},
	}
}

// openStore opens postgres and the optional clickhouse mirror from POSTLENS_* env
func openStore(ctx context.Context) (*store.Store, modkit.Deps, error) {
	root := config.New()
	pgCfg := root.Prefix("POSTLENS_PGSQL_")
	chURL := root.Prefix("POSTLENS_CLICKHOUSE_").MayString("DBURL", "")
	l := logger.Named("cli")

	pgURL := pgCfg.MayString("DBURL", "")
	if pgURL == "" {
		return nil, modkit.Deps{}, fmt.Errorf("POSTLENS_PGSQL_DBURL is not set")
	}
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgURL,
			MaxConns: 2,
		},
		CH: store.CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientName: "postlens",
			ClientTag:  "cli",
		},
	}, store.WithLogger(*l))
	if err != nil {
		return nil, modkit.Deps{}, err
	}
	return st, modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH}, nil
}

// withIngest builds the ingest module the same way the analyzer does and hands fn its ports
func withIngest(ctx context.Context, fn func(context.Context, ingestmod.Ports) error) error {
	st, deps, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()

	deps.Metrics = metrics.New()
	ex, closeLLM, err := llm.Build(ctx, llm.FromConfig(deps.Cfg), deps.Metrics)
	if err != nil {
		return err
	}
	defer closeLLM()

	usage := usagemod.New(deps)
	ingest := ingestmod.New(deps, ingestmod.WithWiring(ingestmod.Wiring{
		Ledger:    module.MustPortsOf[usagemod.Ports](usage).Service,
		Extractor: ex,
	}))
	return fn(ctx, module.MustPortsOf[ingestmod.Ports](ingest))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
