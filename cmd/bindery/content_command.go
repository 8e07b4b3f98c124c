package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/contentcache"
	"bindery/internal/virtual"
)

func newContentCommand(cmdCtx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "content <id>",
		Short: "Extract the content of one virtual book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cfg *config.Config, store *virtual.Store, cache *contentcache.Cache) error {
				data, err := cache.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputPath == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write content to a file instead of stdout")
	return cmd
}
