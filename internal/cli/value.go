package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// valueOutput is the JSON shape of a value command result.
type valueOutput struct {
	PageID     int64       `json:"page_id"`
	PropertyID int64       `json:"property_id"`
	Value      types.Value `json:"value"`
}

func newValueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "value",
		Short: "Read and write property values",
	}

	show := func(pageID, propID int64, v types.Value) error {
		return a.emit(valueOutput{pageID, propID, v}, func(w io.Writer) { fmt.Fprintln(w, v.String()) })
	}
	pair := func(args []string) (int64, int64, error) {
		pageID, err := parseID("page", args[0])
		if err != nil {
			return 0, 0, err
		}
		propID, err := parseID("property", args[1])
		if err != nil {
			return 0, 0, err
		}
		return pageID, propID, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <page> <property>",
			Short: "Print a value; unset values print the type default",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				pageID, propID, err := pair(args)
				if err != nil {
					return err
				}
				v, err := ws.Values().Get(ctx, a.auth(), pageID, propID)
				if err != nil {
					return err
				}
				return show(pageID, propID, v)
			}),
		},
		&cobra.Command{
			Use:   "init <page> <property>",
			Short: "Print a value, storing the type default first if it is unset",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				pageID, propID, err := pair(args)
				if err != nil {
					return err
				}
				v, err := ws.Values().GetOrInit(ctx, a.auth(), pageID, propID)
				if err != nil {
					return err
				}
				return show(pageID, propID, v)
			}),
		},
		&cobra.Command{
			Use:   "set <page> <property> <value>",
			Short: "Store a value",
			Long: "Store a value given in text form: true/false/yes/no for bool, decimal numbers,\n" +
				"comma-separated items for multistring, YYYY-MM-DD for date and RFC 3339 for datetime.\n" +
				"An empty date or datetime clears the value.",
			Args: cobra.ExactArgs(3),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				pageID, propID, err := pair(args)
				if err != nil {
					return err
				}
				prop, err := ws.Properties().Get(ctx, a.auth(), propID)
				if err != nil {
					return err
				}
				v, err := types.ParseValue(prop.Type, args[2])
				if err != nil {
					return err
				}
				if err := ws.Values().Upsert(ctx, a.auth(), pageID, propID, v); err != nil {
					return err
				}
				return show(pageID, propID, v)
			}),
		},
	)
	return cmd
}
