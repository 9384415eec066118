package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "internhub",
		Short:   "internhub: startup internship marketplace API",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newPositionsCmd(),
		newStartupsCmd(),
		newApplicationsCmd(),
		newActivityCmd(),
		newCacheCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
