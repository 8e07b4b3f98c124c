package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/covers"
	"bindery/internal/epub"
	"bindery/internal/virtual"
)

func newCoverCommand(cmdCtx *commandContext) *cobra.Command {
	var outputPath string
	var maxDim int

	cmd := &cobra.Command{
		Use:   "cover <id>",
		Short: "Render a cover thumbnail for one virtual book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(cfg *config.Config, store *virtual.Store) error {
				ctx := cmd.Context()
				vb, err := store.GetVirtualBook(ctx, args[0])
				if err != nil {
					return err
				}
				book, err := store.ResolveOmnibus(ctx, vb.ID)
				if err != nil {
					return err
				}

				reader, err := epub.Open(book.Path)
				if err != nil {
					return fmt.Errorf("open %s: %w", book.Path, err)
				}
				defer reader.Close()

				anchorPath, _ := epub.SplitAnchor(vb.Anchor)
				data, err := covers.WorkCover(reader, anchorPath, maxDim)
				if err != nil {
					return err
				}

				target := outputPath
				if target == "" {
					target = vb.ID + ".jpg"
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", target, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote cover to %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Thumbnail destination (defaults to <id>.jpg)")
	cmd.Flags().IntVar(&maxDim, "max-dim", covers.DefaultMaxDim, "Longest thumbnail edge in pixels")
	return cmd
}
