package cmd

import (
	"fmt"

	"snapspot/internal/janitor"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale preview files",
	Long: `Sweep removes files in the preview directory whose modification time
is older than --max-age (default TEMP_MAX_AGE).`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Duration("max-age", 0, "Age after which files are removed (default TEMP_MAX_AGE)")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadToolConfig()
	if err != nil {
		return err
	}

	maxAge := mustGetDuration(cmd, "max-age")
	if maxAge <= 0 {
		maxAge = cfg.TempMaxAge
	}

	j := janitor.New()
	tracked := adoptTempFiles(cfg.PreviewDir, j)

	removed, err := j.Sweep(maxAge)
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d files older than %v\n", removed, tracked, maxAge)
	return err
}
