package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/internhub/internhub/pkg/activity"
	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/models"
	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Query and manage the marketplace activity log",
	}

	cmd.AddCommand(
		newActivityListCmd(),
		newActivityCleanupCmd(),
	)
	return cmd
}

func newActivityListCmd() *cobra.Command {
	var (
		configPath string
		startupID  string
		actorID    string
		kind       string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activity events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openActivityLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.ActivityQueryOpts{
				StartupID: startupID,
				ActorID:   actorID,
				Kind:      models.ActivityKind(kind),
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			events, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatActivity(events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	cmd.Flags().StringVar(&startupID, "startup", "", "filter by startup ID")
	cmd.Flags().StringVar(&actorID, "actor", "", "filter by actor ID")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by event kind")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to return")
	return cmd
}

func newActivityCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete activity events older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openActivityLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d activity events.\n", deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	return cmd
}

func openActivityLogger(configPath string) (*activity.Logger, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, err
	}

	actCfg := cfg.Activity
	actCfg.DBPath = cfg.ActivityDBPath()
	l, err := activity.New(actCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open activity db: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func formatActivity(events []models.ActivityEvent) string {
	if len(events) == 0 {
		return "No activity found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-28s %-38s %-38s %s\n", "TIME", "KIND", "STARTUP", "SUBJECT", "DETAIL")
	b.WriteString(strings.Repeat("-", 140) + "\n")
	for _, e := range events {
		fmt.Fprintf(&b, "%-20s %-28s %-38s %-38s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.StartupID, e.SubjectID, e.Detail)
	}
	return b.String()
}
