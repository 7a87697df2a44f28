package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/composition"
	"github.com/ivlev/photo2video/internal/timeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the timeline plan for a set of durations",
	Long: `Plan lays out items of the given durations with the given transition and
prints the resulting pass-through and transition ranges as YAML. With
--instructions it prints the layered composition instructions instead.`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.Float64Slice("durations", nil, "item durations in seconds, e.g. 3,4,5")
	f.Float64("transition", 1, "transition duration in seconds")
	f.Int32("fps", 30, "timescale used to express the plan")
	f.String("out", "", "write the plan to this file instead of stdout")
	f.Bool("instructions", false, "print composition instructions instead of the plan")
	_ = planCmd.MarkFlagRequired("durations")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	secs, _ := f.GetFloat64Slice("durations")
	transition, _ := f.GetFloat64("transition")
	fps, _ := f.GetInt32("fps")
	if fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}

	durations := make([]timeline.TimeValue, len(secs))
	for i, s := range secs {
		durations[i] = timeline.FromSeconds(s, fps)
	}

	plan, err := timeline.Build(timeline.ItemsOf(durations), timeline.FromSeconds(transition, fps))
	if err != nil {
		return err
	}

	logger.Debug().
		Int("segments", len(plan.Segments)).
		Float64("total", plan.Total.Seconds()).
		Msg("plan built")

	if ins, _ := f.GetBool("instructions"); ins {
		printInstructions(cmd.OutOrStdout(), composition.Instructions(plan))
		return nil
	}

	out, _ := f.GetString("out")
	if out == "" {
		return timeline.EncodePlan(cmd.OutOrStdout(), plan)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := timeline.WritePlan(plan, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[+++] Plan saved: %s\n", out)
	return nil
}

func printInstructions(w io.Writer, instructions []composition.Instruction) {
	for _, in := range instructions {
		layers := make([]string, len(in.Layers))
		for i, l := range in.Layers {
			layers[i] = fmt.Sprintf("lane %d: item %d", l.Lane, l.Item)
			if l.Opacity != nil {
				layers[i] += fmt.Sprintf(" (opacity %.2f -> %.2f)", l.Opacity.From, l.Opacity.To)
			}
		}
		fmt.Fprintf(w, "[%.3fs - %.3fs] %s\n", in.Range.Start.Seconds(), in.Range.End().Seconds(), strings.Join(layers, " over "))
	}
}
