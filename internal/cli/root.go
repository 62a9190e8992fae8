package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/omniture/internal/config"
	"github.com/wesleyorama2/omniture/internal/output"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCmd()

// app carries the settings resolved by the root command to its subcommands
type app struct {
	configPath string
	flags      config.Config
	timeout    time.Duration
	verbose    bool
	noColor    bool

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "omniture",
		Short:   "Query the Omniture SiteCatalyst reporting API",
		Version: version,
		Long: `omniture authenticates against the SiteCatalyst reporting API, lists
report suites and their metadata, and runs ranked reports, waiting for
them to complete.

Credentials come from --username/--secret, the config file, or the
OMNITURE_USERNAME and OMNITURE_SECRET environment variables, optionally
decorated with --prefix and --suffix.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no subcommand is provided, print help
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML or JSON config file")
	flags.StringVar(&a.flags.Endpoint, "endpoint", "", "API endpoint (default "+defaultEndpoint+")")
	flags.StringVar(&a.flags.Username, "username", "", "Web services username (user:company)")
	flags.StringVar(&a.flags.Secret, "secret", "", "Web services shared secret")
	flags.StringVar(&a.flags.Prefix, "prefix", "", "Prefix for the credential environment variables")
	flags.StringVar(&a.flags.Suffix, "suffix", "", "Suffix for the credential environment variables")
	flags.StringVarP(&a.flags.Output, "output", "o", "", "Output format (text, json, yaml, csv)")
	flags.Float64Var(&a.flags.RateLimit, "rate", 0, "Maximum API calls per second (default unlimited)")
	flags.DurationVarP(&a.timeout, "timeout", "t", 0, "Per-request timeout (default 30s)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newSuitesCmd(a))
	for _, kind := range metadataKinds {
		cmd.AddCommand(newMetadataCmd(a, kind))
	}
	cmd.AddCommand(newReportCmd(a))
	cmd.AddCommand(newCallCmd(a))

	return cmd
}

// setup loads the config file, applies flag overrides and attaches a logger
// to the command context
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if !a.noColor && !output.IsTerminal(os.Stdout) {
		a.noColor = true
	}

	var fileCfg config.Config
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		fileCfg = *loaded
	}

	flags := a.flags
	flags.Timeout = config.Duration(a.timeout)
	a.cfg = config.Merge(fileCfg, flags)

	if errs := config.ValidateConfig(&a.cfg); errs.HasErrors() {
		return errs
	}

	logger := newLogger(cmd.ErrOrStderr(), a.verbose, a.noColor)
	cmd.SetContext(logger.WithContext(cmd.Context()))

	return nil
}

// newLogger writes human-readable log lines. Only warnings are shown unless
// verbose is set.
func newLogger(w io.Writer, verbose, noColor bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}

// formatter returns the output formatter selected by --output or the config
func (a *app) formatter() (output.FormatProvider, error) {
	format, err := output.ParseFormat(a.cfg.Output)
	if err != nil {
		return nil, err
	}
	return output.GetFormatter(format, a.verbose, a.noColor), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.ErrorIcon(true), err)
		return err
	}
	return nil
}
