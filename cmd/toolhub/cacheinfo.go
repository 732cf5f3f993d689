package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolhub/auth"
	"github.com/jonwraymond/toolhub/cache"
)

func newCacheInfoCmd(flags *rootFlags) *cobra.Command {
	var (
		serverURL string
		apiKey    string
	)

	cmd := &cobra.Command{
		Use:   "cache-info",
		Short: "Show cache statistics of a running server, or the local cache layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if serverURL == "" {
				cfg, err := loadConfig(ctx, flags)
				if err != nil {
					return err
				}
				pc, err := cfg.Cache.Pool()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "capacity\t%d\n", pc.MaxEntries)
				fmt.Fprintf(w, "refresh hint\t%v (threshold %.2f)\n", pc.EnableRefreshHint, pc.RefreshThreshold)
				fmt.Fprintln(w, "NAMESPACE\tTTL\tBUCKET")
				for _, ns := range pc.Namespaces {
					fmt.Fprintf(w, "%s\t%s\t%s\n", ns.Name, ns.TTL, ns.Bucket)
				}
				return w.Flush()
			}

			stats, err := fetchStats(ctx, serverURL, apiKey)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAMESPACE\tENTRIES\tHITS\tMISSES\tHIT RATE")
			for _, ns := range stats.Namespaces {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f%%\n", ns.Name, ns.Entries, ns.Hits, ns.Misses, ns.HitRate*100)
			}
			fmt.Fprintf(w, "total\t%d/%d\t\t\tevictions %d\n", stats.TotalEntries, stats.MaxEntries, stats.Evictions)
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running toolhub server")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the server")
	return cmd
}

func fetchStats(ctx context.Context, base, apiKey string) (cache.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/v1/cache/stats", nil)
	if err != nil {
		return cache.Stats{}, err
	}
	if apiKey != "" {
		req.Header.Set(auth.DefaultAPIKeyHeader, apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return cache.Stats{}, fmt.Errorf("fetch cache stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return cache.Stats{}, fmt.Errorf("fetch cache stats: %s", resp.Status)
	}

	var stats cache.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return cache.Stats{}, fmt.Errorf("decode cache stats: %w", err)
	}
	return stats, nil
}
