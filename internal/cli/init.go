package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize folio storage",
		Long: "Create the configuration and data directories, then initialize the storage backend.\n" +
			"An explicit --data-dir is recorded in config.yaml when it has no data_dir yet.",
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
			if a.flags.dataDir != "" && a.v.GetString(cfgKeyDataDir) == "" {
				cfg, err := a.workspaceConfig()
				if err != nil {
					return err
				}
				a.v.Set(cfgKeyDataDir, cfg.DataDir)
				if err := a.v.WriteConfigAs(paths.ConfigFile(a.configDir)); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
			}
			a.printf("folio initialized in %s\n", a.configDir)
			return nil
		}),
	}
}
