package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/contentcache"
	"bindery/internal/virtual"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Content cache utilities",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheSweepCommand(cmdCtx))
	return cacheCmd
}

func newCacheStatsCommand(cmdCtx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show content cache occupancy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cfg *config.Config, store *virtual.Store, cache *contentcache.Cache) error {
				stats := cache.Stats()
				if asJSON {
					return writeJSON(cmd, map[string]any{
						"entries":     stats.Entries,
						"total_bytes": stats.TotalSize,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Entries:     %d\n", stats.Entries)
				fmt.Fprintf(out, "Total bytes: %d\n", stats.TotalSize)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newCacheSweepCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Evict cache entries idle beyond the configured age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cfg *config.Config, store *virtual.Store, cache *contentcache.Cache) error {
				maxAge := time.Duration(cfg.ContentCache.MaxAgeHours) * time.Hour
				evicted := cache.Sweep(time.Now().UTC(), maxAge)
				fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d entries\n", evicted)
				return nil
			})
		},
	}
}
