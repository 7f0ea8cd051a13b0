package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index MEDIA_DIR into the asset catalog once",
	Long: `Index walks MEDIA_DIR, reads each photo's embedded location and
updates the asset catalog, removing entries for files that disappeared.
The run summary is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadToolConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.indexer.Index(cmd.Context())
	if err != nil {
		return fmt.Errorf("index %s: %w", cfg.MediaDir, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
