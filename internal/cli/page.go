package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func newPageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage pages and their content",
	}

	var contentFile string
	setContent := &cobra.Command{
		Use:   "write <id> [body]",
		Short: "Replace the markdown body of a page",
		Long:  "Replace the markdown body of a page with the body argument, or with the file named by --file (\"-\" reads stdin).",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
			id, err := parseID("page", args[0])
			if err != nil {
				return err
			}
			body, err := contentBody(args[1:], contentFile)
			if err != nil {
				return err
			}
			return ws.Pages().SetContent(ctx, a.auth(), id, body)
		}),
	}
	setContent.Flags().StringVar(&contentFile, "file", "", "read the body from a file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <collection> <title>",
			Short: "Create a page",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				colID, err := parseID("collection", args[0])
				if err != nil {
					return err
				}
				pg, err := ws.Pages().Create(ctx, a.auth(), colID, args[1])
				if err != nil {
					return err
				}
				return a.emit(pg, func(w io.Writer) { fmt.Fprintf(w, "%d\t%s\n", pg.ID, pg.Title) })
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a page with every property value",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("page", args[0])
				if err != nil {
					return err
				}
				pg, err := ws.Pages().Get(ctx, a.auth(), id)
				if err != nil {
					return err
				}
				props, err := ws.Properties().List(ctx, a.auth(), types.PropertyQuery{CollectionID: pg.CollectionID})
				if err != nil {
					return err
				}
				return a.emit(pg, func(w io.Writer) { writePages(w, props, []*types.Page{pg}) })
			}),
		},
		&cobra.Command{
			Use:   "title <id> <title>",
			Short: "Change the title of a page",
			Args:  cobra.ExactArgs(2),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("page", args[0])
				if err != nil {
					return err
				}
				return ws.Pages().SetTitle(ctx, a.auth(), id, args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a page with its values and content",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("page", args[0])
				if err != nil {
					return err
				}
				return ws.Pages().Delete(ctx, a.auth(), id)
			}),
		},
		&cobra.Command{
			Use:   "read <id>",
			Short: "Print the markdown body of a page",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
				id, err := parseID("page", args[0])
				if err != nil {
					return err
				}
				c, err := ws.Pages().Content(ctx, a.auth(), id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.emit(c, nil)
				}
				a.printf("%s\n", c.Body)
				return nil
			}),
		},
		setContent,
	)
	return cmd
}

// contentBody picks the body from the positional argument or --file.
func contentBody(args []string, file string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("%w: give the body or --file, not both", errUsage)
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: missing body", errUsage)
	}
}
