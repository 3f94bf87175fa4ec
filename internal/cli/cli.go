package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/sparsegrid/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalFlags are shared by every command. Each maps onto an app.Config
// field and only overrides it when set on the command line.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	sheet      string
	rows       int
	cols       int
	tabs       int
	maxDepth   int
	safeMode   bool
}

// NewRootCommand builds the sparsegrid command tree writing to output.
func NewRootCommand(ctx context.Context, output io.Writer) *cobra.Command {
	flags := &globalFlags{}
	defaults := app.DefaultConfig()

	root := &cobra.Command{
		Use:   "sparsegrid",
		Short: "A sparse three-dimensional spreadsheet engine.",
		Long: `sparsegrid evaluates HCL expressions stored in the cells of a sparse
three-dimensional grid. Cells reference each other with S(row, col, tab);
results are cached, cycles are detected and every edit can be undone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(output)
	root.SetErr(output)
	root.SetContext(ctx)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML configuration file.")
	pf.StringVar(&flags.logLevel, "log-level", defaults.LogLevel, "Logging level: debug, info, warn or error.")
	pf.StringVar(&flags.logFormat, "log-format", defaults.LogFormat, "Log output format: text or json.")
	pf.StringVarP(&flags.sheet, "sheet", "s", "", "Path to the HCL sheet file.")
	pf.IntVar(&flags.rows, "rows", defaults.Shape.Rows, "Initial number of rows.")
	pf.IntVar(&flags.cols, "cols", defaults.Shape.Cols, "Initial number of columns.")
	pf.IntVar(&flags.tabs, "tabs", defaults.Shape.Tabs, "Initial number of tables.")
	pf.IntVar(&flags.maxDepth, "max-depth", defaults.MaxEvalDepth, "Maximum nesting of cell evaluations.")
	pf.BoolVar(&flags.safeMode, "safe-mode", false, "Return cell text instead of evaluating it.")

	root.AddCommand(
		newEvalCommand(flags),
		newFindCommand(flags),
		newServeCommand(flags),
		newRemoteCommand(),
	)
	return root
}

// Execute runs the command tree with args. Flag and argument errors are
// returned as *ExitError with code 2.
func Execute(ctx context.Context, args []string, output io.Writer) error {
	slog.Debug("CLI started.", "args", args)
	root := NewRootCommand(ctx, output)
	root.SetArgs(args)
	return root.Execute()
}

// buildConfig layers defaults, the optional YAML file and the flags set on
// the command line, then validates the result.
func buildConfig(cmd *cobra.Command, flags *globalFlags, overrides func(*app.Config)) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := app.LoadConfigFile(flags.configPath, cfg)
		if err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if changed("sheet") {
		cfg.SheetPath = flags.sheet
	}
	if changed("rows") {
		cfg.Shape.Rows = flags.rows
	}
	if changed("cols") {
		cfg.Shape.Cols = flags.cols
	}
	if changed("tabs") {
		cfg.Shape.Tabs = flags.tabs
	}
	if changed("max-depth") {
		cfg.MaxEvalDepth = flags.maxDepth
	}
	if changed("safe-mode") {
		cfg.SafeMode = flags.safeMode
	}
	if overrides != nil {
		overrides(&cfg)
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("Configuration assembled.", "config", *valid)
	return valid, nil
}

// newApp builds the application for a command. Logs go to the command's
// error stream.
func newApp(cmd *cobra.Command, cfg *app.Config) (*app.App, error) {
	a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: fmt.Sprintf("failed to start: %v", err)}
	}
	return a, nil
}

// AsExitError returns err as an *ExitError, defaulting to code 1.
func AsExitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 1, Message: err.Error()}
}
