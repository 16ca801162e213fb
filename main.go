package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tupyy/artifact-collector/cmd"
	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/pkg/logger"
)

func main() {
	// default configuration
	cfg := config.NewConfigurationWithOptionsAndDefaults(
		config.WithLogFormat("console"),
		config.WithLogLevel("info"),
	)

	var verbose bool
	undo := func() {}
	var log *zap.Logger

	rootCmd := &cobra.Command{
		Use:           "artifact-collector",
		Short:         "Collect forensic artifacts from GRR clients, hunts and local folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				cfg.LogLevel = "debug"
			}
			if err := validateConfig(cfg); err != nil {
				return err
			}

			log = logger.Init(cfg.LogFormat, cfg.LogLevel)
			undo = zap.ReplaceGlobals(log)
			return nil
		},
	}
	registerLoggingFlags(rootCmd, cfg)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output, same as --log-level debug")

	rootCmd.AddCommand(cmd.NewCollectCommand(cfg))
	rootCmd.AddCommand(cmd.NewServeCommand(cfg))

	err := rootCmd.Execute()

	if log != nil {
		_ = log.Sync()
	}
	undo()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func validateConfig(cfg *config.Configuration) error {
	switch cfg.LogFormat {
	case "console":
	case "json":
	default:
		return fmt.Errorf("invalid log-format: %s", cfg.LogFormat)
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %s", cfg.LogLevel)
	}

	return nil
}

func registerLoggingFlags(cmd *cobra.Command, config *config.Configuration) {
	cmd.PersistentFlags().StringVar(&config.LogFormat, "log-format", config.LogFormat, "format of the logs: console or json")
	cmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
}
