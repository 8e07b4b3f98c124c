package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/virtual"
)

func newListCommand(cmdCtx *commandContext) *cobra.Command {
	var omnibusID string
	var page, size int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List virtual books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(cfg *config.Config, store *virtual.Store) error {
				ctx := cmd.Context()

				var result virtual.Page
				var err error
				if omnibusID != "" {
					result, err = store.ListByOmnibus(ctx, omnibusID, page, size)
				} else {
					result, err = store.ListAll(ctx, page, size)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, listPayload(result))
				}

				out := cmd.OutOrStdout()
				if len(result.Items) == 0 {
					fmt.Fprintln(out, "No virtual books found")
					return nil
				}

				headers := []string{"ID", "NO.", "TITLE", "AUTHORS", "OMNIBUS"}
				rows := make([][]string, 0, len(result.Items))
				for _, vb := range result.Items {
					rows = append(rows, []string{
						vb.ID,
						vb.Number,
						vb.Title,
						strings.Join(vb.Metadata.Authors, ", "),
						vb.OmnibusID,
					})
				}

				if isTerminal(out) {
					fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft}))
				} else {
					for _, row := range rows {
						fmt.Fprintln(out, strings.Join(row, "\t"))
					}
				}

				fmt.Fprintf(out, "Page %d of %d (%d total)\n", result.Number, result.TotalPages(), result.TotalItems)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&omnibusID, "omnibus", "", "Limit to one omnibus book id")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 50, "Page size")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func listPayload(result virtual.Page) map[string]any {
	items := make([]map[string]any, 0, len(result.Items))
	for _, vb := range result.Items {
		items = append(items, virtualBookPayload(vb))
	}
	return map[string]any{
		"items":       items,
		"page":        result.Number,
		"size":        result.Size,
		"total_items": result.TotalItems,
		"total_pages": result.TotalPages(),
	}
}

func isTerminal(out any) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
