package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/contentcache"
	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/process"
	"bindery/internal/textutil"
	"bindery/internal/virtual"
)

func newProcessCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Run omnibus processing for a single EPUB file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cfg *config.Config, store *virtual.Store, cache *contentcache.Cache) error {
				path, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("stat %s: %w", path, err)
				}

				ctx := cmd.Context()
				book, err := store.UpsertBook(ctx, &library.Book{
					Path:           path,
					Title:          textutil.DeriveTitle(path),
					MediaType:      library.MediaTypeEPUB,
					FileSize:       info.Size(),
					FileModifiedAt: info.ModTime(),
				})
				if err != nil {
					return err
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logging: %w", err)
				}
				processor, err := process.NewProcessor(cfg, store, cache, logger)
				if err != nil {
					return err
				}
				result, err := processor.Process(ctx, book)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Book %s classified as %s\n", book.ID, result.Type)
				switch {
				case result.Skipped:
					fmt.Fprintf(out, "No virtual books generated: %s\n", result.SkipReason)
				case len(result.VirtualBooks) > 0:
					fmt.Fprintf(out, "Generated %d virtual books:\n", len(result.VirtualBooks))
					for _, vb := range result.VirtualBooks {
						fmt.Fprintf(out, "  %s. %s (%s)\n", vb.Number, vb.Title, vb.ID)
					}
				default:
					fmt.Fprintln(out, "Not an omnibus; no virtual books")
				}
				return nil
			})
		},
	}
}
