package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
	"alertbridge/pkg/logging"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   constants.ServiceName,
		Short: "Turns Slack alert messages into Jira tickets",
		Long:  "alertbridge polls a Slack channel for monitoring alerts and opens a Jira issue for every triggered alert",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional, env vars are enough)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pollOnceCmd())
	rootCmd.AddCommand(metaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and the logger. The returned cleanup flushes the
// logger and releases the signal context.
func setup() (context.Context, *config.Config, logger.Logger, func(), error) {
	earlyLog := logging.NewEarlyLog(constants.ServiceName)

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, constants.ServiceName)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logging.WithServiceName(ctx, constants.ServiceName)

	cleanup := func() {
		cancel()
		_ = log.Sync()
	}
	return ctx, cfg, log, cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the channel and serve the status endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, log, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			log.InfowCtx(ctx, "Starting alertbridge",
				"channel_id", cfg.Slack.ChannelID,
				"interval", cfg.Poller.Interval(),
				"cursor_backend", cfg.Cursor.Backend,
			)

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.ErrorwCtx(ctx, "Failed to initialize application", "error", err)
				_ = app.Shutdown(context.Background())
				return err
			}

			if err := app.Run(ctx); err != nil {
				log.ErrorwCtx(ctx, "Application error", "error", err)
				return err
			}
			return nil
		},
	}
}

func pollOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll-once",
		Short: "Run a single poll cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, log, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			app := NewApp(cfg, log)
			defer app.Shutdown(context.Background())
			if err := app.Initialize(ctx); err != nil {
				return err
			}

			stats, err := app.poller.Cycle(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fetched=%d processed=%d created=%d failed=%d cursor=%s\n",
				stats.Fetched, stats.Processed, stats.Created, stats.Failed, stats.Cursor)
			return nil
		},
	}
}

func metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Load and print the tracker priorities and category options",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, log, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			app := NewApp(cfg, log)
			app.initTracker()
			if err := app.resolver.EnsureLoaded(ctx); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(app.resolver.Snapshot())
		},
	}
}
