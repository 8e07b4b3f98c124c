package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/contentcache"
	"bindery/internal/logging"
	"bindery/internal/process"
	"bindery/internal/scanner"
	"bindery/internal/virtual"
)

func newScanCommand(cmdCtx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan the library and regenerate virtual books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cfg *config.Config, store *virtual.Store, cache *contentcache.Cache) error {
				root := cfg.Paths.LibraryDir
				if len(args) == 1 {
					expanded, err := config.ExpandPath(args[0])
					if err != nil {
						return err
					}
					root = expanded
				}
				if workers > 0 {
					cfg.Workflow.ScanWorkers = workers
				}

				lock := flock.New(cfg.ScanLockPath())
				acquired, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire scan lock: %w", err)
				}
				if !acquired {
					return errors.New("another scan is already running")
				}
				defer func() { _ = lock.Unlock() }()

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logging: %w", err)
				}

				processor, err := process.NewProcessor(cfg, store, cache, logger)
				if err != nil {
					return err
				}

				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				if cfg.ContentCache.Enabled {
					sweeper := contentcache.NewSweeper(cache,
						time.Duration(cfg.ContentCache.SweepIntervalHours)*time.Hour,
						time.Duration(cfg.ContentCache.MaxAgeHours)*time.Hour)
					go sweeper.Run(ctx)
				}

				events, err := scanner.New(store, logger).Scan(ctx, root)
				if err != nil {
					return err
				}

				manager := process.NewManager(cfg, processor, logger)
				manager.Start(ctx)
				for _, event := range events {
					if err := manager.Submit(ctx, event); err != nil {
						manager.Stop()
						return err
					}
				}
				failures := manager.Stop()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %s: %d books processed\n", root, len(events))
				if failures > 0 {
					return fmt.Errorf("%d books failed processing; see logs", failures)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Override the scan worker count")
	return cmd
}
