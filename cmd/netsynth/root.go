package main

import (
	"os"

	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	// settings and logger are ready once PersistentPreRunE has run
	settings netsynth.Settings
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "netsynth",
	Short: "Synthesize network topologies from intents and analyze their resilience",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = netsynth.LoadSettings(configFile)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			settings.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			settings.Log.Format = logFormat
		}

		logger, err = netsynth.NewLogger(settings.Log)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			// stderr does not support sync on every platform
			_ = logger.Sync()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true, // don't print help when subcommands return an error
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log encoding (json, console)")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newScenariosCmd())
	rootCmd.AddCommand(newPipelineCmd())
	rootCmd.AddCommand(newExamplesCmd())
}
