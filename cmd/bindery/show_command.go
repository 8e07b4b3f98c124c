package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/virtual"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one virtual book",
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

				if asJSON {
					payload := virtualBookPayload(vb)
					payload["omnibus_title"] = book.Title
					payload["omnibus_path"] = book.Path
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", vb.ID)
				fmt.Fprintf(out, "Title:     %s%s\n", vb.Metadata.Title, lockMark(vb.Metadata.TitleLock))
				fmt.Fprintf(out, "Number:    %s\n", vb.Number)
				if len(vb.Metadata.Authors) > 0 {
					fmt.Fprintf(out, "Authors:   %s%s\n", strings.Join(vb.Metadata.Authors, ", "), lockMark(vb.Metadata.AuthorsLock))
				}
				if vb.Metadata.ISBN != "" {
					fmt.Fprintf(out, "ISBN:      %s%s\n", vb.Metadata.ISBN, lockMark(vb.Metadata.ISBNLock))
				}
				fmt.Fprintf(out, "Omnibus:   %s (%s)\n", book.Title, book.ID)
				fmt.Fprintf(out, "Source:    %s\n", book.Path)
				fmt.Fprintf(out, "Anchor:    %s\n", vb.Anchor)
				fmt.Fprintf(out, "Created:   %s\n", vb.CreatedAt.Format(time.RFC3339))
				if vb.Metadata.Summary != "" {
					fmt.Fprintf(out, "Summary:%s\n", lockMark(vb.Metadata.SummaryLock))
					for _, line := range strings.Split(vb.Metadata.Summary, "\n") {
						fmt.Fprintf(out, "  %s\n", line)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func lockMark(locked bool) string {
	if locked {
		return " [locked]"
	}
	return ""
}

func virtualBookPayload(vb *virtual.VirtualBook) map[string]any {
	return map[string]any{
		"id":         vb.ID,
		"omnibus_id": vb.OmnibusID,
		"title":      vb.Metadata.Title,
		"sort_title": vb.SortTitle,
		"number":     vb.Number,
		"anchor":     vb.Anchor,
		"authors":    vb.Metadata.Authors,
		"tags":       vb.Metadata.Tags,
		"isbn":       vb.Metadata.ISBN,
		"summary":    vb.Metadata.Summary,
		"created_at": vb.CreatedAt,
		"updated_at": vb.UpdatedAt,
	}
}
