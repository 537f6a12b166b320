package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/spk/internal/compiler"
	"github.com/dshills/spk/internal/config"
	"github.com/dshills/spk/internal/logging"
	"github.com/dshills/spk/internal/vars"
)

// app carries state shared by all subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Persistent flags
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "spk",
		Short: "Compile key binding scripts into editor key maps",
		Long: `spk runs a Lua key binding script, or a YAML list of bindings, and writes
the resulting records as a Sublime Text key map.

Composite bindings are stored under the spk_multi_cmd command and can be
played back with "spk run".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(newCompileCmd(a))
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// setup loads the configuration and builds the logger. Flags override the
// file and environment.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: a.stderr,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) expander() *vars.Expander {
	return vars.New(
		vars.WithVars(a.cfg.Vars),
		vars.WithPackages(a.cfg.Editor.Packages),
		vars.WithPlatform(a.cfg.Editor.Platform),
	)
}

func (a *app) compiler() *compiler.Compiler {
	return compiler.New(a.expander(), a.logger)
}

// compileOptions returns the options for a compile pass, with non-empty
// flag values taking precedence over the configuration.
func (a *app) compileOptions(bindings, destination string) compiler.Options {
	opts := compiler.Options{
		Bindings:    a.cfg.Bindings,
		Destination: a.cfg.Destination,
		Timeout:     a.cfg.Timeout.Std(),
		Platform:    a.cfg.Editor.Platform,
	}
	if bindings != "" {
		opts.Bindings = bindings
	}
	if destination != "" {
		opts.Destination = destination
	}
	return opts
}
