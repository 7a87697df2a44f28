package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/composition"
	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
)

var stitchCmd = &cobra.Command{
	Use:   "stitch CLIP...",
	Short: "Join video clips with transitions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStitch,
}

func init() {
	f := stitchCmd.Flags()
	f.String("output", "", "output file (default output.dir/output.composited_name)")
	f.String("style", "", "transition style")
	f.String("direction", "", "transition direction")
	f.Float64("transition", 0, "transition duration in seconds")

	rootCmd.AddCommand(stitchCmd)
}

func runStitch(cmd *cobra.Command, clips []string) error {
	f := cmd.Flags()

	store, err := config.OpenPreferenceStore(cfg.Preferences.Path)
	if err != nil {
		return err
	}
	prefs := store.Snapshot()

	spec := composition.StitchSpec{
		Style:      prefs.Style,
		Direction:  prefs.Direction,
		Transition: prefs.Transition,
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		FPS:        int32(cfg.Render.FPS),
		Quality:    cfg.Render.Quality,
	}
	if f.Changed("style") {
		v, _ := f.GetString("style")
		if spec.Style, err = export.ParseStyle(v); err != nil {
			return err
		}
	}
	if f.Changed("direction") {
		v, _ := f.GetString("direction")
		if spec.Direction, err = export.ParseDirection(v); err != nil {
			return err
		}
	}
	if f.Changed("transition") {
		spec.Transition, _ = f.GetFloat64("transition")
	}

	opts := renderOptions()
	spec.Codec = opts.Codec

	output, _ := f.GetString("output")
	if output == "" {
		output = opts.CompositedPath()
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("[*] Stitching %d clips with %s (%.2gs)\n", len(clips), spec.Style, spec.Transition)
	out, plan, err := composition.NewStitcher(export.NewFFmpegExporter(logger), logger).Stitch(ctx, clips, spec, output)
	if err != nil {
		return err
	}

	fmt.Printf("[+++] Success! Result: %s (%.2fs)\n", out, plan.Total.Seconds())
	return nil
}
