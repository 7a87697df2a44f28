package composition

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/media"
	"github.com/ivlev/photo2video/internal/timeline"
)

// movieTimescale is the timescale transitions are expressed in when
// joining clips of differing timescales.
const movieTimescale = 600

// StitchSpec configures a clip stitch.
type StitchSpec struct {
	Style      export.Style
	Direction  export.Direction
	Transition float64

	Width   int
	Height  int
	FPS     int32
	Codec   string
	Quality int
}

// Stitcher joins existing video clips with transitions.
type Stitcher struct {
	exporter export.Exporter
	probe    func(string) (media.Info, error)
	logger   zerolog.Logger
}

func NewStitcher(exp export.Exporter, logger zerolog.Logger) *Stitcher {
	return &Stitcher{
		exporter: exp,
		probe:    media.Probe,
		logger:   logger.With().Str("component", "stitcher").Logger(),
	}
}

// Stitch plans clips back to back with spec's transition and exports the
// result to output.
func (s *Stitcher) Stitch(ctx context.Context, clips []string, spec StitchSpec, output string) (string, *timeline.Plan, error) {
	if len(clips) == 0 {
		return "", nil, inputError("select clips", ErrNoSelection)
	}

	items := make([]timeline.Item, len(clips))
	for i, path := range clips {
		info, err := s.probe(path)
		if err != nil {
			return "", nil, newError(CategoryInput, "probe", i, err)
		}
		items[i] = timeline.Item{Index: i, Duration: info.Duration, Handle: path}
	}

	transition := timeline.FromSeconds(spec.Transition, movieTimescale)
	if spec.Style == export.StyleNone {
		transition = timeline.Zero(movieTimescale)
	}
	plan, err := timeline.Build(items, transition)
	if err != nil {
		return "", nil, inputError("plan", err)
	}

	req := export.Request{
		Clips:       make([]export.Clip, len(items)),
		Transitions: Transitions(plan),
		Style:       spec.Style,
		Direction:   spec.Direction,
		Output:      output,
		Width:       spec.Width,
		Height:      spec.Height,
		FPS:         spec.FPS,
		Codec:       spec.Codec,
		Quality:     spec.Quality,
	}
	for i, it := range items {
		req.Clips[i] = export.Clip{
			Path:  it.Handle,
			Range: timeline.TimeRange{Start: timeline.Zero(it.Duration.Timescale), Duration: it.Duration},
		}
	}

	s.logger.Info().
		Int("clips", len(clips)).
		Str("total", fmt.Sprintf("%.2fs", plan.Total.Seconds())).
		Msg("stitching")

	out, err := s.exporter.Export(ctx, req)
	if err != nil {
		return "", plan, newError(CategoryExport, "stitch", -1, err)
	}
	return out, plan, nil
}
