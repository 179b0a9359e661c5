package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/R3kki/scroogecoin/config"
	"github.com/R3kki/scroogecoin/logger"
)

const programName = "scrooge"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func commonLogger(cfg *config.Config) logger.Logger {
	level := cfg.Log.Level
	if globalFlags.debug {
		level = "debug"
	}
	return logger.New(programName,
		logger.WithLevel(level),
		logger.WithPretty(cfg.Log.Pretty),
		logger.WithWriter(os.Stderr),
	)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Settle epochs of scroogecoin transactions against a UTXO pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(settleCommand())
	rootCmd.AddCommand(serveCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
