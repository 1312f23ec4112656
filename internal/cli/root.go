// Package cli implements the folio command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/logger"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/sqlite"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	userID    int64
}

// app is the state shared by one command tree: flags, the loaded config,
// the logger, and the workspace once attached.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	log       *zap.Logger
	ws        types.Workspace
	out       io.Writer
}

// NewRootCmd creates the top-level "folio" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop(), out: os.Stdout}
	root := &cobra.Command{
		Use:   "folio",
		Short: "Collections of pages with typed properties",
		Long: "folio manages collections of pages. Each page carries typed property\n" +
			"values and a markdown body; each collection has filters and a sort.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: data_dir from config.yaml, or platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().Int64Var(&a.flags.userID, "user", 0, "user id passed to the authorizer")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCollectionCmd(a),
		newPropertyCmd(a),
		newPageCmd(a),
		newValueCmd(a),
		newFilterCmd(a),
		newSortCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps workspace errors caused by the caller to exitUserError and
// everything else to exitSysError.
func exitCode(err error) int {
	for _, user := range []error{
		types.ErrNotFound, types.ErrForbidden, types.ErrConflict, types.ErrTypeMismatch,
		types.ErrInvalidID, types.ErrInvalidName, types.ErrInvalidValueType,
		types.ErrInvalidFilter, types.ErrInvalidDirection, types.ErrPropertyLimit,
		errUsage,
	} {
		if errors.Is(err, user) {
			return exitUserError
		}
	}
	return exitSysError
}

// errUsage marks malformed command-line arguments.
var errUsage = errors.New("usage")

// setup loads config.yaml and builds the logger. Commands that need the
// workspace call attach themselves.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(v.GetString(cfgKeyEnv), v.GetString(cfgKeyLogLevel))
	if err != nil {
		return err
	}
	a.configDir, a.v, a.log = configDir, v, log
	a.out = cmd.OutOrStdout()
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
	return nil
}

// workspaceConfig assembles the Attach config from config.yaml and flags.
func (a *app) workspaceConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend:         a.v.GetString(cfgKeyBackend),
		DataDir:         dataDir,
		MaxProperties:   a.v.GetInt(cfgKeyMaxProperties),
		DefaultPageSize: a.v.GetInt(cfgKeyDefaultPageSize),
	}, nil
}

// attach opens the workspace named by the config. It is detached by the
// root command's post-run hook.
func (a *app) attach(ctx context.Context) (types.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	cfg, err := a.workspaceConfig()
	if err != nil {
		return nil, err
	}
	var ws types.Workspace
	switch cfg.Backend {
	case types.BackendSQLite:
		ws = sqlite.NewBackend(sqlite.WithLogger(a.log))
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
	if err := ws.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("attach workspace: %w", err)
	}
	a.ws = ws
	return ws, nil
}

func (a *app) close() error {
	defer func() { _ = a.log.Sync() }()
	if a.ws == nil {
		return nil
	}
	ws := a.ws
	a.ws = nil
	if err := ws.Detach(); err != nil {
		return fmt.Errorf("detach workspace: %w", err)
	}
	return nil
}

// auth builds the caller identity from --user.
func (a *app) auth() types.AuthContext {
	return types.NewAuthContext(a.flags.userID)
}

// run wraps a command body that needs an attached workspace.
func (a *app) run(fn func(ctx context.Context, ws types.Workspace, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ws, err := a.attach(cmd.Context())
		if err != nil {
			return err
		}
		if err := fn(cmd.Context(), ws, args); err != nil {
			// Post-run hooks are skipped when RunE fails.
			_ = a.close()
			return err
		}
		return nil
	}
}

// parseID parses a positional id argument.
func parseID(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id %q must be a positive integer", errUsage, what, raw)
	}
	return id, nil
}
