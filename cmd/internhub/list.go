package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/service"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02T15:04:05"

func withService(configPath string, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	svc, cleanup, err := openService(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(context.Background(), svc)
}

func newPositionsCmd() *cobra.Command {
	var (
		configPath string
		startupID  string
	)

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List active internship positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(configPath, func(ctx context.Context, svc *service.Service) error {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

				if startupID != "" {
					positions, err := svc.StartupPositions(ctx, startupID, false)
					if err != nil {
						return err
					}
					if len(positions) == 0 {
						fmt.Println("No positions found for startup.")
						return nil
					}
					fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDEADLINE\tAPPLICATIONS")
					for _, p := range positions {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
							p.ID, p.Title, p.Status, p.Deadline.Format(timeLayout), p.ApplicationsCount)
					}
					return w.Flush()
				}

				positions, err := svc.ActivePositions(ctx, false)
				if err != nil {
					return err
				}
				if len(positions) == 0 {
					fmt.Println("No active positions.")
					return nil
				}
				fmt.Fprintln(w, "ID\tSTARTUP\tTITLE\tLOCATION\tSKILLS\tDEADLINE")
				for _, p := range positions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						p.ID, p.StartupName, p.Title, p.Location, strings.Join(p.Skills, ","), p.Deadline.Format(timeLayout))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	cmd.Flags().StringVar(&startupID, "startup", "", "list every position of one startup")
	return cmd
}

func newStartupsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "startups",
		Short: "List registered startups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(configPath, func(ctx context.Context, svc *service.Service) error {
				startups, err := svc.Startups(ctx, false)
				if err != nil {
					return err
				}
				if len(startups) == 0 {
					fmt.Println("No startups registered.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tWEBSITE\tOWNER")
				for _, s := range startups {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Domain, s.Website, s.OwnerID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	return cmd
}

func newApplicationsCmd() *cobra.Command {
	var (
		configPath string
		studentID  string
		ownerID    string
	)

	cmd := &cobra.Command{
		Use:   "applications",
		Short: "List applications for a student or a startup owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (studentID == "") == (ownerID == "") {
				return fmt.Errorf("exactly one of --student or --owner is required")
			}

			return withService(configPath, func(ctx context.Context, svc *service.Service) error {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

				if studentID != "" {
					apps, err := svc.StudentApplications(ctx, studentID, false)
					if err != nil {
						return err
					}
					if len(apps) == 0 {
						fmt.Println("No applications found.")
						return nil
					}
					fmt.Fprintln(w, "ID\tSTARTUP\tPOSITION\tSTATUS\tAPPLIED")
					for _, a := range apps {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
							a.ID, a.Position.Startup.Name, a.Position.Title, a.Status, a.AppliedAt.Format(timeLayout))
					}
					return w.Flush()
				}

				apps, err := svc.StartupApplications(ctx, ownerID, false)
				if err != nil {
					return err
				}
				if len(apps) == 0 {
					fmt.Println("No applications found.")
					return nil
				}
				fmt.Fprintln(w, "ID\tPOSITION\tSTUDENT\tEMAIL\tSTATUS\tAPPLIED")
				for _, a := range apps {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						a.ID, a.PositionTitle, a.StudentName, a.StudentEmail, a.Status, a.AppliedAt.Format(timeLayout))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	cmd.Flags().StringVar(&studentID, "student", "", "student ID")
	cmd.Flags().StringVar(&ownerID, "owner", "", "startup owner ID")
	return cmd
}
