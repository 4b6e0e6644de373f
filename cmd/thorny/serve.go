package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/everthorn/thorny/internal/api"
	"github.com/everthorn/thorny/internal/config"
	"github.com/everthorn/thorny/internal/db"
	"github.com/everthorn/thorny/internal/relay"
	"github.com/everthorn/thorny/internal/relay/discord"
	"github.com/everthorn/thorny/internal/relay/slack"
	"github.com/everthorn/thorny/internal/sweeper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Thorny API server",
		Long:  "Serves the REST API and runs the timer-expiry sweeper until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Thorny config file")
	return cmd
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// buildRelay assembles the chat relay from whichever adapters are
// configured. No tokens means a nil router, which is safe to announce on.
func buildRelay(cfg config.RelayConfig, logger *zap.Logger) (*relay.Router, error) {
	var adapters []relay.Adapter
	if cfg.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, nil
	}
	return relay.NewRouter(logger, adapters...), nil
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	router, err := buildRelay(cfg.Relay, logger)
	if err != nil {
		return err
	}

	sw, err := sweeper.New(sweeper.Opts{
		DB:       gormDB,
		Schedule: cfg.Sweep.Schedule,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sw.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("sweeper stopped", zap.Error(err))
		}
	}()

	if err := api.Start(ctx, api.StartOpts{
		DB:     gormDB,
		Port:   cfg.Server.Port,
		Logger: logger,
		Relay:  router,
	}); err != nil {
		return err
	}

	logger.Info("shut down cleanly")
	return nil
}

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one timer-expiry sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Thorny config file")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	sw, err := sweeper.New(sweeper.Opts{DB: gormDB, Schedule: cfg.Sweep.Schedule})
	if err != nil {
		return err
	}
	failed, err := sw.Sweep()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sweep complete: %d quest(s) failed on timeout\n", failed)
	return nil
}
