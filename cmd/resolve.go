package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snapspot/internal/geo"
	"snapspot/internal/pipeline"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <photo>",
	Short: "Resolve a photo's location and optionally fetch nearby places",
	Long: `Resolve runs the location pipeline once for a photo path relative to
MEDIA_DIR and prints the result as JSON. --lat/--lon supply an override that
always wins. With --suggestions the nearby places are fetched as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().Float64("lat", 0, "Override latitude")
	resolveCmd.Flags().Float64("lon", 0, "Override longitude")
	resolveCmd.Flags().Bool("suggestions", false, "Also fetch nearby place suggestions")
	resolveCmd.Flags().Duration("wait", pipeline.DefaultSuggestionWait, "How long to wait for prefetched suggestions")
	resolveCmd.Flags().Duration("timeout", 30*time.Second, "Overall timeout")
}

type resolveOutput struct {
	Session     string        `json:"sessionId"`
	Photo       string        `json:"photo"`
	Location    *geo.Location `json:"location"`
	Source      string        `json:"suggestionSource,omitempty"`
	Places      []geo.Place   `json:"places,omitempty"`
	SuggestErr  string        `json:"suggestionError,omitempty"`
	PreviewPath string        `json:"preview,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadToolConfig()
	if err != nil {
		return err
	}

	override, err := overrideFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), mustGetDuration(cmd, "timeout"))
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sel, err := a.pipeline.SelectPhoto(ctx, args[0], override)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	out := resolveOutput{
		Session:     sel.Session.ID,
		Photo:       args[0],
		Location:    sel.Location,
		PreviewPath: sel.Preview,
	}

	if mustGetBool(cmd, "suggestions") && sel.Location != nil {
		res, source, err := a.pipeline.Suggestions(ctx, sel.Session.ID, mustGetDuration(cmd, "wait"))
		if err != nil {
			out.SuggestErr = err.Error()
		} else {
			out.Source = string(source)
			out.Places = res.Places
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// overrideFromFlags builds the override location when both --lat and --lon
// were given.
func overrideFromFlags(cmd *cobra.Command) (*geo.Location, error) {
	latSet := cmd.Flags().Changed("lat")
	lonSet := cmd.Flags().Changed("lon")
	if !latSet && !lonSet {
		return nil, nil
	}
	if latSet != lonSet {
		return nil, errors.New("--lat and --lon must be given together")
	}

	loc := &geo.Location{
		Latitude:  mustGetFloat64(cmd, "lat"),
		Longitude: mustGetFloat64(cmd, "lon"),
		Timestamp: time.Now(),
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("override: %w", err)
	}
	return loc, nil
}
