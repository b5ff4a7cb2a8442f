// Package cmd provides the CLI commands for fitsherd.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fitsherd/fitsherd/internal/astro"
	"github.com/fitsherd/fitsherd/internal/config"
	"github.com/fitsherd/fitsherd/internal/logging"
	"github.com/fitsherd/fitsherd/internal/output"
	"github.com/fitsherd/fitsherd/pkg/version"
)

var (
	cfgPath     string
	debugMode   bool
	plainOutput bool

	cfg            *config.Config
	loggingCleanup func()
)

// NewRootCmd creates the root command for the fitsherd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fitsherd",
		Short: "Index, triage and patch directories of FITS images",
		Long: `fitsherd is an observatory post-processing toolkit for directories
of FITS images.

It indexes a directory's files by header-keyword values and answers
queries over that index, triages files for missing required header
fields, patches headers with derived time and pointing metadata, and
assigns object names from a local catalog.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("fitsherd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to a config file (default: .fitsherd.yaml in the working directory)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"enable debug logging to ~/.fitsherd/logs/")
	cmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"disable styled output")

	cmd.PersistentPreRunE = setupRun
	cmd.PersistentPostRunE = teardownRun

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newTriageCmd())
	cmd.AddCommand(newPatchCmd())
	cmd.AddCommand(newObjectsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupRun loads configuration and wires logging before any subcommand.
func setupRun(_ *cobra.Command, _ []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.WriteToStderr = cfg.Logging.Stderr
	if debugMode {
		logCfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownRun(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig returns the active configuration. Subcommands invoked outside
// the root command (tests) fall back to loading it themselves.
func loadConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgPath != "" {
		return config.LoadFile(cfgPath)
	}
	return config.Load(".")
}

// siteFromConfig builds the observing site the patch pipeline writes.
func siteFromConfig(c *config.Config) astro.Site {
	return astro.NewSite(c.Site.Name, c.Site.Latitude, c.Site.Longitude, c.Site.Altitude)
}

// newOutput builds the result writer for a command.
func newOutput(cmd *cobra.Command) *output.Writer {
	return output.New(cmd.OutOrStdout(), plainOutput)
}

// argDir returns the directory argument, defaulting to the current one.
func argDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
