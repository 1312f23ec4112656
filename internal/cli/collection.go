package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage collections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a collection",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				col, err := ws.Collections().Create(ctx, a.auth(), args[0])
				if err != nil {
					return err
				}
				return a.emit(col, func(w io.Writer) { fmt.Fprintf(w, "%d\t%s\n", col.ID, col.Name) })
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				cols, err := ws.Collections().List(ctx, a.auth())
				if err != nil {
					return err
				}
				return a.emit(cols, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tSORT")
					for _, c := range cols {
						fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, sortLabel(c.Sort))
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a collection",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				col, err := ws.Collections().Get(ctx, a.auth(), id)
				if err != nil {
					return err
				}
				return a.emit(col, func(w io.Writer) {
					fmt.Fprintf(w, "%d\t%s\t%s\n", col.ID, col.Name, sortLabel(col.Sort))
				})
			}),
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a collection",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				return ws.Collections().Rename(ctx, a.auth(), id, args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a collection with its properties, pages, filters and sort",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				return ws.Collections().Delete(ctx, a.auth(), id)
			}),
		},
	)
	return cmd
}

func sortLabel(s *types.Sort) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%d %s", s.PropertyID, s.Direction)
}
