package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the filtered, sorted pages of a collection",
		Long: "List the pages of a collection with every property value, applying the\n" +
			"collection's filters and sort. --limit 0 uses default_page_size from\n" +
			"config.yaml; a negative limit lists every page.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
			colID, err := parseID("collection", args[0])
			if err != nil {
				return err
			}
			pages, err := ws.ListPages(ctx, a.auth(), types.PageQuery{CollectionID: colID, Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.emit(pages, nil)
			}
			props, err := ws.Properties().List(ctx, a.auth(), types.PropertyQuery{CollectionID: colID})
			if err != nil {
				return err
			}
			return a.emit(pages, func(w io.Writer) { writePages(w, props, pages) })
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of pages")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of pages to skip")
	return cmd
}

// writePages prints one row per page with a column per property, in
// registry order.
func writePages(w io.Writer, props []*types.Property, pages []*types.Page) {
	header := []string{"ID", "TITLE"}
	for _, p := range props {
		header = append(header, strings.ToUpper(p.Name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, pg := range pages {
		row := []string{fmt.Sprint(pg.ID), pg.Title}
		for _, p := range props {
			v, _ := pg.Value(p.ID)
			row = append(row, v.String())
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}
