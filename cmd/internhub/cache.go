package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/internhub/internhub/pkg/api"
	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/models"
	"github.com/spf13/cobra"
)

// The query cache lives in the serving process, so these commands talk to
// its admin endpoints.
func newCacheCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear a running server's query cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := serverURL(configPath, addr)
			if err != nil {
				return err
			}

			var stats models.CacheStats
			if err := adminCall(http.MethodGet, base+"/api/cache/stats", nil, &stats); err != nil {
				return err
			}
			fmt.Printf("Entries:       %d\nHits:          %d\nMisses:        %d\nFetch errors:  %d\nInvalidations: %d\n",
				stats.Entries, stats.Hits, stats.Misses, stats.FetchErrors, stats.Invalidations)
			return nil
		},
	}

	var req api.InvalidateRequest
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Invalidate cache entries by key, prefix, tag, or all",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, v := range []string{req.Key, req.Prefix, req.Tag} {
				if v != "" {
					set++
				}
			}
			if set > 1 {
				return fmt.Errorf("at most one of --key, --prefix or --tag may be set")
			}

			base, err := serverURL(configPath, addr)
			if err != nil {
				return err
			}

			var resp api.InvalidateResponse
			if err := adminCall(http.MethodPost, base+"/api/cache/invalidate", req, &resp); err != nil {
				return err
			}
			fmt.Printf("Removed %d cache entries.\n", resp.Removed)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&req.Key, "key", "", "invalidate a single key")
	clearCmd.Flags().StringVar(&req.Prefix, "prefix", "", "invalidate every key with this prefix")
	clearCmd.Flags().StringVar(&req.Tag, "tag", "", "invalidate every entry carrying this tag")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "internhub.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "server base URL (defaults to the configured listen address)")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

func serverURL(configPath, addr string) (string, error) {
	if addr != "" {
		return strings.TrimRight(addr, "/"), nil
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return "", err
	}
	host := cfg.Listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host, nil
}

func adminCall(method, url string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
