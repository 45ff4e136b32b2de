package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thalas777/thalas-trader-sub000/pkg/config"
	"github.com/thalas777/thalas-trader-sub000/pkg/providerfactory"
	"github.com/thalas777/thalas-trader-sub000/pkg/server"
	"github.com/thalas777/thalas-trader-sub000/pkg/telemetry/logging"
	"github.com/thalas777/thalas-trader-sub000/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the consensus server",
	Long: `Start the consensus HTTP server.

Providers are built from the environment and the optional config file. A
provider without an API key is simply not registered.

Examples:
  # Start with environment-configured providers
  ANTHROPIC_API_KEY=... OPENAI_API_KEY=... trader serve

  # Start with a config file
  trader serve --config /etc/thalas/trader.yaml

  # Override listen address
  trader serve --listen 0.0.0.0:9000

  # Validate configuration without starting
  trader serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate configuration without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	}); err != nil {
		return err
	}

	if serveFlags.dryRun {
		fmt.Printf("configuration valid; providers: %v\n", cfg.ConfiguredProviders())
		return nil
	}

	reg, err := providerfactory.BuildRegistry(cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Options{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
		}, nil)
	}

	slog.Info("thalas trader starting",
		"version", Version,
		"providers", reg.Names(),
	)

	srv := server.New(cfg, reg, collector)
	return srv.Start(context.Background())
}
