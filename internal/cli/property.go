package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func newPropertyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Manage the properties of a collection",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <collection> <name> <type>",
			Short: "Add a property",
			Long:  "Add a property of type bool, int, float, string, multistring, date or datetime.",
			Args:  cobra.ExactArgs(3),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				vt, err := types.ParseValueType(args[2])
				if err != nil {
					return err
				}
				prop, err := ws.Properties().Create(ctx, a.auth(), colID, args[1], vt)
				if err != nil {
					return err
				}
				return a.emit(prop, func(w io.Writer) { writeProperties(w, []*types.Property{prop}) })
			}),
		},
		&cobra.Command{
			Use:   "list <collection>",
			Short: "List properties in display order",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				props, err := ws.Properties().List(ctx, a.auth(), types.PropertyQuery{CollectionID: colID})
				if err != nil {
					return err
				}
				return a.emit(props, func(w io.Writer) { writeProperties(w, props) })
			}),
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a property",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("property", args[0])
				if err != nil {
					return err
				}
				return ws.Properties().Rename(ctx, a.auth(), id, args[1])
			}),
		},
		&cobra.Command{
			Use:   "move <id> up|down",
			Short: "Swap a property with its neighbour",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("property", args[0])
				if err != nil {
					return err
				}
				dir, err := types.ParseMoveDirection(args[1])
				if err != nil {
					return err
				}
				props, err := ws.Properties().Reorder(ctx, a.auth(), id, dir)
				if err != nil {
					return err
				}
				return a.emit(props, func(w io.Writer) { writeProperties(w, props) })
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a property with its values, filter and sort",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("property", args[0])
				if err != nil {
					return err
				}
				return ws.Properties().Delete(ctx, a.auth(), id)
			}),
		},
	)
	return cmd
}

func writeProperties(w io.Writer, props []*types.Property) {
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tORDER")
	for _, p := range props {
		order := "-"
		if p.Order != nil {
			order = fmt.Sprint(*p.Order)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Type, order)
	}
}
