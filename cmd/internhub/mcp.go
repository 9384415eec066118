package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/logging"
	"github.com/internhub/internhub/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve marketplace queries as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// stdout carries the protocol; zap's production config logs to stderr.
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

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return mcp.New(svc, svc.Cache(), log, version).ServeStdio(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	return cmd
}
