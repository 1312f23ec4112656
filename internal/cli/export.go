package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/export"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <collection> <file.jsonl>",
		Short: "Write the filtered, sorted page list of a collection as JSONL",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
			colID, err := parseID("collection", args[0])
			if err != nil {
				return err
			}
			n, err := export.Collection(ctx, ws, a.auth(), colID, args[1])
			if err != nil {
				return fmt.Errorf("export collection %d: %w", colID, err)
			}
			a.printf("exported %d pages to %s\n", n, args[1])
			return nil
		}),
	}
}
