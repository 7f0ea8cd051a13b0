package cmd

import (
	"fmt"
	"os"

	"snapspot/internal/logging"
	"snapspot/internal/startup"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snapspot",
	Short: "Resolve where a photo was taken and suggest nearby places",
	Long: `snapspot resolves a location for a selected photo from, in order, a
user override, the photo's own metadata and the device's current position,
and prefetches nearby place suggestions for it in the background.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var verbose bool

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at info level in one-shot commands")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadToolConfig prepares configuration for the one-shot commands, which
// skip the server banner and only log warnings unless --verbose is set.
func loadToolConfig() (*startup.Config, error) {
	if !verbose && logging.GetLevel() < logging.LevelWarn {
		logging.SetLevel(logging.LevelWarn)
	}
	cfg, err := startup.ParseConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	return cfg, nil
}
