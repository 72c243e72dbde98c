// Package cli implements the entitykeys command-line interface.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entitykeys/internal/paths"
	"github.com/mesh-intelligence/entitykeys/pkg/entity"
	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// rootFlags holds global flag values.
type rootFlags struct {
	configDir  string
	dataDir    string
	schemaFile string
	logLevel   string
	jsonMode   bool
}

// app carries the state shared by the subcommands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "entitykeys" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}
	root := &cobra.Command{
		Use:   "entitykeys",
		Short: "Derive and inspect storage keys for entity tables",
		Long: "entitykeys compiles key definitions declared in a schema file into\n" +
			"partition and row keys, and stores entities under them in SQLite or Redis.",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&a.flags.schemaFile, "schema", "", "schema file (default: <config-dir>/"+paths.SchemaFileName+")")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newEncodeCmd(a))
	root.AddCommand(newDecodeCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newPutCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newDeleteCmd(a))

	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	os.Exit(ExitCode(NewRootCmd().Execute()))
}

// setup probes the hash capabilities, loads configuration and builds the
// logger. Any failure here is a system error.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := keys.CheckCapabilities(); err != nil {
		return sysError(err)
	}
	if cmd.Annotations[skipConfig] != "" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	s, err := resolveSettings(v, a.flags, configDir)
	if err != nil {
		return sysError(err)
	}

	a.configDir = configDir
	a.settings = s
	a.logger = newLogger(s.logLevel, cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded",
		"config_dir", configDir,
		"backend", s.config.Backend,
		"data_dir", s.config.DataDir,
		"schema_file", s.schemaFile)
	return nil
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// ExitCode maps an error returned by the root command to an exit code.
// Errors without a code, such as flag and argument errors, are user errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// classify wraps err as a user error when it describes bad input or a
// missing entity, and as a system error otherwise.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		se  *types.SchemaError
		mpe *types.MissingPropertyError
	)
	switch {
	case errors.As(err, &se),
		errors.As(err, &mpe),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrTableNotFound),
		errors.Is(err, types.ErrSchemaNotFound),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidKey),
		errors.Is(err, types.ErrTypeMismatch),
		errors.Is(err, types.ErrUnknownProperty),
		errors.Is(err, types.ErrInvalidValueType),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, types.ErrInvalidPrefix),
		errors.Is(err, entity.ErrMalformedFile):
		return userError(err)
	}
	return sysError(err)
}
