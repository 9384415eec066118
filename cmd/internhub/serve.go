package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/internhub/internhub/pkg/activity"
	"github.com/internhub/internhub/pkg/api"
	"github.com/internhub/internhub/pkg/cache"
	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/logging"
	"github.com/internhub/internhub/pkg/service"
	"github.com/internhub/internhub/pkg/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the internhub API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			svc, cleanup, err := openService(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := api.New(cfg, svc, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info("starting internhub",
				zap.String("config", configPath),
				zap.Duration("cache_ttl", svc.Cache().TTL()),
				zap.Bool("single_flight", cfg.Cache.SingleFlight),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	return cmd
}

// openService wires the store, activity log and query cache into a Service.
func openService(cfg *config.Config, log *zap.Logger) (*service.Service, func(), error) {
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	var act *activity.Logger
	if cfg.Activity.Enabled {
		actCfg := cfg.Activity
		actCfg.DBPath = cfg.ActivityDBPath()
		act, err = activity.New(actCfg)
		if err != nil {
			_ = st.Close()
			return nil, nil, fmt.Errorf("init activity log: %w", err)
		}
	}

	opts := []cache.Option{cache.WithLogger(log)}
	if cfg.Cache.SingleFlight {
		opts = append(opts, cache.WithSingleFlight())
	}
	c := cache.New(cfg.Cache.TTL, opts...)

	svc := service.New(st, c,
		service.WithActivity(act),
		service.WithLogger(log),
		service.WithFetchTimeout(cfg.FetchTimeout),
	)

	cleanup := func() {
		if act != nil {
			_ = act.Close()
		}
		_ = st.Close()
	}
	return svc, cleanup, nil
}
