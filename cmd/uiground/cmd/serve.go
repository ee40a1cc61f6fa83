package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/uiground/internal/broker"
	"github.com/Aman-CERP/uiground/internal/embed"
	"github.com/Aman-CERP/uiground/internal/mcp"
	"github.com/Aman-CERP/uiground/internal/semantic"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Run the uiground MCP server on stdio.

Agents connect over stdio JSON-RPC, ingest UI snapshots and query them.
The server keeps one snapshot in memory; each ingest replaces it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var embedder embed.Embedder
			if cfg.Semantic.Enabled {
				if offline {
					// Hash embeddings, no provider lifecycle to manage.
					embedder = embed.NewStaticEmbedder(embed.DefaultDimensions)
				} else {
					provider := embed.NewLocalProvider(
						embed.NewStaticEmbedder(embed.DefaultDimensions))
					coord := broker.NewCoordinator(provider)
					defer coord.Close()

					client, err := broker.NewClient(coord, provider, false)
					if err != nil {
						return err
					}
					defer client.Close()

					if err := client.Init(ctx); err != nil {
						slog.Warn("embedding provider failed to initialize, semantic queries degrade to lexical",
							slog.String("error", err.Error()))
					} else {
						embedder = broker.NewRemoteEmbedder(client, embed.DefaultDimensions)
					}
				}
			}

			engine := semantic.NewEngine(embedder, cfg.Cache.Capacity,
				semantic.WithQueryTuning(cfg.Query.DefaultLimit, cfg.Query.NearRadius),
				semantic.WithSemanticDefaults(cfg.Semantic.Threshold, cfg.Semantic.TopK),
				semantic.WithBatchSize(cfg.Semantic.BatchSize),
			)
			server, err := mcp.NewServer(engine, cfg)
			if err != nil {
				return err
			}

			slog.Info("uiground server starting",
				slog.Bool("semantic", cfg.Semantic.Enabled),
				slog.Bool("offline", offline))
			return server.Serve(ctx, "stdio")
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Embed in-process without the shared provider broker")

	return cmd
}
