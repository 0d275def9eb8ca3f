package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/motherlink/internal/config"
	"github.com/aretw0/motherlink/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "motherlink",
	Short: "MotherLink USSD service",
	Long: `MotherLink serves maternal health menus over USSD: registration, profile updates,
health guidance, distress alerts and emergency reports, in Kinyarwanda and English.`,
	SilenceUsage: true,
}

// loader collects flag bindings before a command loads the configuration.
var loader = config.NewLoader()

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Optional YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")

	mustBind("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func mustBind(key string, flag *pflag.Flag) {
	if err := loader.BindFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithFormat(os.Stderr, logging.ParseLevel(cfg.LogLevel), logging.Format(cfg.LogFormat))
	return cfg, logger, nil
}
