package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/composition"
	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/media"
	"github.com/ivlev/photo2video/internal/sink"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/system"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Write the selected images into a video",
	Long: `Convert writes the first --count images of the input into the base video
and, when a transition style is selected, renders the animated composite
next to it.

The input is a directory of images, a PDF file, or slate:N for N generated
test cards. Without --input the newest PDF or folder in ./input is used.`,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("input", "", "directory of images, PDF file, or slate:N")
	f.String("output", "", "output directory (overrides output.dir)")
	f.Bool("all", false, "use every item of the input")
	f.Bool("save", false, "store the resulting preferences")
	addPreferenceFlags(f)

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	started := time.Now()

	store, err := config.OpenPreferenceStore(cfg.Preferences.Path)
	if err != nil {
		return err
	}
	prefs, err := applyPreferenceFlags(f, store.Snapshot())
	if err != nil {
		return err
	}

	input, _ := f.GetString("input")
	if input == "" {
		latest, err := system.FindLatestInput("input")
		if err != nil {
			return fmt.Errorf("%w; put a PDF or an image folder into input/", err)
		}
		input = latest
		fmt.Printf("[*] Selected input: %s\n", input)
	}

	src, err := source.Open(input, cfg.Render.DPI)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	if all, _ := f.GetBool("all"); all {
		prefs.ItemCount = src.Count()
	}
	if save, _ := f.GetBool("save"); save {
		if err := store.Save(prefs); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}

	opts := renderOptions()
	if out, _ := f.GetString("output"); out != "" {
		opts.OutputDir = out
	}

	fmt.Println("--- [PHOTO2VIDEO] ---")
	fmt.Printf("[*] Input: %s | Items: %d of %d\n", input, prefs.ItemCount, src.Count())
	fmt.Printf("[*] Size: %dx%d @ %d FPS | Encoder: %s\n", opts.Width, opts.Height, opts.FPS, opts.Codec)
	fmt.Printf("[*] Transition: %s %s %.2gs | Display: %.2gs\n", prefs.Style, prefs.Direction, prefs.Transition, prefs.Display)
	fmt.Println("---------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conv := composition.NewConverter(src, sink.NewFFmpegSink(logger), export.NewFFmpegExporter(logger), opts, logger)
	run, err := conv.Start(ctx, prefs)
	if err != nil {
		return err
	}
	plan := run.Plan()
	fmt.Printf("[*] Run %s | Timeline: %.2fs, %d transitions\n",
		run.ID(), plan.Total.Seconds(), len(composition.Transitions(plan)))

	for n := range run.Progress() {
		fmt.Printf("[>] Ready: %d/%d\n", n, prefs.ItemCount)
	}

	res, err := run.Wait(ctx)
	if err != nil {
		if composition.IsPermission(err) {
			fmt.Printf("[!] Check write permissions for %s\n", opts.OutputDir)
		}
		if composition.CategoryOf(err) == composition.CategoryExport && res.Output != "" {
			fmt.Printf("[!] Transition render failed; the plain video is at %s\n", res.Output)
		}
		return err
	}

	final := res.Output
	if res.Composited != "" {
		final = res.Composited
	}
	if info, err := media.Probe(final); err == nil {
		logger.Info().
			Str("path", final).
			Float64("duration", info.Duration.Seconds()).
			Int("width", info.Width).
			Int("height", info.Height).
			Msg("output verified")
	} else {
		logger.Warn().Err(err).Str("path", final).Msg("cannot probe output")
	}

	if cfg.Stats {
		printStats(input, final, res, time.Since(started))
	}

	fmt.Printf("[+++] Success! Result: %s\n", final)
	return nil
}

func renderOptions() composition.Options {
	codec := cfg.Render.Codec
	if codec == "" || codec == "auto" {
		codec = system.GetBestH264Encoder()
		if codec != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", codec)
		}
	}
	return composition.Options{
		OutputDir:      cfg.Output.Dir,
		BaseName:       cfg.Output.BaseName,
		CompositedName: cfg.Output.CompositedName,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		FPS:            int32(cfg.Render.FPS),
		Codec:          codec,
		Quality:        cfg.Render.Quality,
		Hold:           cfg.HoldMode(),
		Buffers:        cfg.Pool.Buffers,
	}
}

func printStats(input, output string, res composition.Result, total time.Duration) {
	report := system.Report{
		Build:       BuildVersion,
		Input:       input,
		Items:       res.Items,
		Output:      output,
		Total:       total,
		Writing:     res.Writing,
		Compositing: res.Compositing,
		Host:        system.Snapshot(),
	}
	if fi, err := os.Stat(output); err == nil {
		report.OutputBytes = fi.Size()
	}
	fmt.Print(report.String())

	if err := system.AppendBenchmark("benchmark.log", report); err != nil {
		fmt.Printf("[!] Cannot write benchmark.log: %v\n", err)
	}
}
