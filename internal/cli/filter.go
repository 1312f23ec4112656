package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// operandFlags holds the text operands of filter add and filter update.
type operandFlags struct {
	value, start, end string
}

func (o *operandFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.value, "value", "", "operand of eq, neq, gt and lt")
	fs.StringVar(&o.start, "start", "", "range start of in_range and not_in_range")
	fs.StringVar(&o.end, "end", "", "range end of in_range and not_in_range")
}

// operand parses the flags that were given against vt. Omitted operands stay
// zero so the store fills in its defaults.
func (o *operandFlags) operand(fs *pflag.FlagSet, vt types.ValueType) (types.Operand, error) {
	var op types.Operand
	for _, f := range []struct {
		name string
		raw  string
		dst  *types.Value
	}{
		{"value", o.value, &op.Value},
		{"start", o.start, &op.Start},
		{"end", o.end, &op.End},
	} {
		if !fs.Changed(f.name) {
			continue
		}
		v, err := types.ParseValue(vt, f.raw)
		if err != nil {
			return types.Operand{}, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return op, nil
}

func newFilterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage the filters of a collection",
		Long: "Manage the filters of a collection. A property has at most one filter.\n" +
			"Kinds: " + kindNames() + ".",
	}

	var addOps operandFlags
	add := &cobra.Command{
		Use:   "add <property> <kind>",
		Short: "Add a filter on a property",
		Args:  cobra.ExactArgs(2),
	}
	add.RunE = a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
		propID, err := parseID("property", args[0])
		if err != nil {
			return err
		}
		kind, err := types.ParseFilterKind(args[1])
		if err != nil {
			return err
		}
		prop, err := ws.Properties().Get(ctx, a.auth(), propID)
		if err != nil {
			return err
		}
		op, err := addOps.operand(add.Flags(), prop.Type)
		if err != nil {
			return err
		}
		f, err := ws.Filters().Create(ctx, a.auth(), types.FilterSpec{PropertyID: propID, Kind: kind, Operand: op})
		if err != nil {
			return err
		}
		return a.emit(f, func(w io.Writer) { writeFilters(w, []*types.Filter{f}) })
	})
	addOps.register(add.Flags())

	var updateOps operandFlags
	update := &cobra.Command{
		Use:   "update <id> <kind>",
		Short: "Change the kind and operands of a filter",
		Args:  cobra.ExactArgs(2),
	}
	update.RunE = a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
		id, err := parseID("filter", args[0])
		if err != nil {
			return err
		}
		kind, err := types.ParseFilterKind(args[1])
		if err != nil {
			return err
		}
		current, err := ws.Filters().Get(ctx, a.auth(), id)
		if err != nil {
			return err
		}
		op, err := updateOps.operand(update.Flags(), current.Type)
		if err != nil {
			return err
		}
		f, err := ws.Filters().Update(ctx, a.auth(), id, kind, op)
		if err != nil {
			return err
		}
		return a.emit(f, func(w io.Writer) { writeFilters(w, []*types.Filter{f}) })
	})
	updateOps.register(update.Flags())

	cmd.AddCommand(
		add,
		update,
		&cobra.Command{
			Use:   "list <collection>",
			Short: "List the filters of a collection",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				filters, err := ws.Filters().List(ctx, a.auth(), colID)
				if err != nil {
					return err
				}
				return a.emit(filters, func(w io.Writer) { writeFilters(w, filters) })
			}),
		},
		&cobra.Command{
			Use:   "available <collection>",
			Short: "List the properties that have no filter yet",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				props, err := ws.Filters().Available(ctx, a.auth(), colID)
				if err != nil {
					return err
				}
				return a.emit(props, func(w io.Writer) { writeProperties(w, props) })
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a filter",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("filter", args[0])
				if err != nil {
					return err
				}
				return ws.Filters().Delete(ctx, a.auth(), id)
			}),
		},
	)
	return cmd
}

func kindNames() string {
	names := make([]string, len(types.FilterKindCodes))
	for i, c := range types.FilterKindCodes {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func writeFilters(w io.Writer, filters []*types.Filter) {
	fmt.Fprintln(w, "ID\tPROPERTY\tKIND\tOPERAND")
	for _, f := range filters {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", f.ID, f.PropertyID, f.Kind.DisplayName(), operandLabel(f))
	}
}

func operandLabel(f *types.Filter) string {
	switch {
	case !f.Kind.HasOperand():
		return ""
	case f.Kind.IsRange():
		return f.Operand.Start.String() + " .. " + f.Operand.End.String()
	default:
		return f.Operand.Value.String()
	}
}
