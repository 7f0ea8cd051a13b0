package cmd

import (
	"fmt"

	"snapspot/internal/startup"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := startup.GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "snapspot %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Commit: %s\n", info.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  Built:  %s\n", info.BuildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "  Go:     %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
