// Package root contains the root command for the application
package root

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hydrogen/pos-receipts/internal/config"
	"hydrogen/pos-receipts/internal/container"
	"hydrogen/pos-receipts/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	Output   string
	Template string
}

// overrides are configuration values that can be set on the command line.
type overrides struct {
	logLevel     string
	logFormat    string
	csvDelimiter string
	backend      string
	workers      int
}

var (
	// Log is used before the container exists
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "pos-receipts",
		Short: "Generate POS receipt PDFs from CSV transaction exports.",
		Long: `pos-receipts turns CSV transaction exports into point-of-sale receipts.
Receipts are rendered with the selected template (hydrogen or medusa) and
written as single PDFs or as one ZIP archive for a whole file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				appContainer.GetLogger().WithError(err).Warn("Failed to release capture backend")
			}
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	flagOverrides = overrides{}

	appConfig    *config.Config
	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input CSV file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Template, "template", "t", "", "Receipt template (see 'templates')")

	Cmd.PersistentFlags().StringVar(&flagOverrides.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&flagOverrides.logFormat, "log-format", "", "Log format (text, json)")
	Cmd.PersistentFlags().StringVar(&flagOverrides.csvDelimiter, "csv-delimiter", "", "CSV delimiter character")
	Cmd.PersistentFlags().StringVar(&flagOverrides.backend, "backend", "", "Capture backend (canvas, chrome)")
	Cmd.PersistentFlags().IntVar(&flagOverrides.workers, "workers", 0, "Parallel receipt captures in a batch")
}

// initialize loads .env and configuration, applies flag overrides and wires
// the container.
func initialize(cmd *cobra.Command, args []string) error {
	envFile, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	if envFile != "" {
		c.GetLogger().Debug("Loaded environment file", logging.F(logging.FieldFile, envFile))
	}

	appConfig = cfg
	appContainer = c
	return nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = flagOverrides.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagOverrides.logFormat
	}
	if flags.Changed("csv-delimiter") {
		cfg.CSV.Delimiter = flagOverrides.csvDelimiter
	}
	if flags.Changed("backend") {
		cfg.Capture.Backend = flagOverrides.backend
	}
	if flags.Changed("workers") && flagOverrides.workers > 0 {
		cfg.Batch.Workers = flagOverrides.workers
	}
}

// GetContainer returns the container wired for the running command, or nil
// before the root command initialized it.
func GetContainer() *container.Container {
	return appContainer
}

// GetConfig returns the configuration of the running command.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

// GetLogger returns the container's logger, or a logrus adapter around Log
// when no container exists yet.
func GetLogger() logging.Logger {
	if appContainer != nil {
		return appContainer.GetLogger()
	}
	return logging.NewLogrusAdapterFromLogger(Log)
}
