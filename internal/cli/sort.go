package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func newSortCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Manage the sort directive of a collection",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <collection>",
			Short: "Show the sort directive",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				s, ok, err := ws.Sorts().Get(ctx, a.auth(), colID)
				if err != nil {
					return err
				}
				var out *types.Sort
				if ok {
					out = &s
				}
				return a.emit(out, func(w io.Writer) { fmt.Fprintln(w, sortLabel(out)) })
			}),
		},
		&cobra.Command{
			Use:   "set <collection> <property> asc|desc",
			Short: "Sort the page list by a property",
			Args:  cobra.ExactArgs(3),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				propID, err := parseID("property", args[1])
				if err != nil {
					return err
				}
				dir, err := types.ParseSortDirection(args[2])
				if err != nil {
					return err
				}
				return ws.Sorts().Set(ctx, a.auth(), colID, types.Sort{PropertyID: propID, Direction: dir})
			}),
		},
		&cobra.Command{
			Use:   "clear <collection>",
			Short: "Remove the sort directive",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				return ws.Sorts().Clear(ctx, a.auth(), colID)
			}),
		},
	)
	return cmd
}
