package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vk/contentspec/internal/app"
	"github.com/vk/contentspec/internal/config"
	"github.com/vk/contentspec/internal/spec"
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

// usageError marks an argument or flag error, reported with exit code 2.
func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// flags holds the persistent flags shared by every command.
type flags struct {
	manifest  string
	logLevel  string
	logFormat string
	cacheSize int
	saveLayer string
}

// NewRootCommand builds the specctl command tree. Command output goes to
// outW, logs to errW, and every command loads the manifest with loader.
func NewRootCommand(outW, errW io.Writer, loader config.Loader) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "specctl",
		Short: "Inspect and edit layered spec documents",
		Long: `specctl reads spec documents through the layers of a manifest, checks them
against the types compiled into it and writes validated changes back to the
save layer.

Examples:
  specctl -m layers.hcl layers
  specctl -m layers.hcl show units/knight.spec
  specctl -m layers.hcl mold unit --save
  specctl -m layers.hcl lint templates/unit.template units/knight.spec
  specctl -m layers.hcl set units/knight.spec stats.strength 15 --kind "Range, [, 1, 20, ]"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.StringVarP(&f.manifest, "manifest", "m", "layers.hcl", "Layer manifest file or directory.")
	pf.StringVar(&f.logLevel, "log-level", "warn", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.IntVar(&f.cacheSize, "cache-size", spec.DefaultCacheSize, "Number of unmodified documents kept in memory.")
	pf.StringVar(&f.saveLayer, "save-layer", "", "Layer that receives writes, overriding the manifest.")

	newApp := func() (*app.App, error) {
		cfg, err := app.NewConfig(app.Config{
			ManifestPath: f.manifest,
			LogFormat:    strings.ToLower(f.logFormat),
			LogLevel:     strings.ToLower(f.logLevel),
			CacheSize:    f.cacheSize,
			SaveLayer:    f.saveLayer,
		})
		if err != nil {
			return nil, usageError(err)
		}
		slog.Debug("CLI configuration validated.", "config", cfg)
		return app.NewApp(errW, cfg, loader), nil
	}

	root.AddCommand(
		layersCommand(newApp),
		showCommand(newApp),
		checkCommand(newApp),
		moldCommand(newApp),
		lintCommand(newApp),
		setCommand(newApp),
		watchCommand(newApp),
	)
	return root
}

type appFactory func() (*app.App, error)

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func layersCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the layers from highest to lowest priority",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Layers(cmd.OutOrStdout())
		},
	}
}

func showCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <path>",
		Short: "Print a document and its base chain",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Show(cmd.OutOrStdout(), args[0])
		},
	}
}

func checkCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>...",
		Short: "Activate documents and read every property their type declares",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			var failed []error
			for _, p := range args {
				if err := a.Check(cmd.OutOrStdout(), p); err != nil {
					failed = append(failed, fmt.Errorf("%s: %w", p, err))
				}
			}
			if len(failed) > 0 {
				return &ExitError{Code: 1, Message: errors.Join(failed...).Error()}
			}
			return nil
		},
	}
}

func moldCommand(newApp appFactory) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "mold <type-id>",
		Short: "Print the template of a registered type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Mold(cmd.OutOrStdout(), args[0], save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save the template under "+app.TemplateDir+"/ in the save layer.")
	return cmd
}

func lintCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <template> <path>",
		Short: "Check a document against a saved template",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			issues, err := a.Lint(cmd.OutOrStdout(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d issue(s) found", len(issues))}
			}
			return nil
		},
	}
}

func setCommand(newApp appFactory) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "set <path> <key> <value>",
		Short: "Validate a value and write it to the save layer",
		Long: `Validates value against the access code given with --kind and writes it at
key, a dot-separated path through nested properties. The document is saved
to the save layer, and created there when no layer has it.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Set(cmd.OutOrStdout(), args[0], args[1], args[2], kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "Keyword", `Access code of the value, e.g. "Int" or "Range, [, 0, 10, )".`)
	return cmd
}

func watchCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-check documents whenever their files change",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Watch(ctx, cmd.OutOrStdout())
		},
	}
}

// Execute runs the command tree with args. Errors that are not already an
// ExitError are reported with exit code 1.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, loader config.Loader) error {
	root := NewRootCommand(outW, errW, loader)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		if strings.HasPrefix(err.Error(), "unknown command") {
			return usageError(err)
		}
		return &ExitError{Code: 1, Message: err.Error()}
	}
	return nil
}
