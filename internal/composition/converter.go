package composition

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/sequencer"
	"github.com/ivlev/photo2video/internal/sink"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/timeline"
)

// Options are the render settings shared by every run of a Converter.
type Options struct {
	OutputDir      string
	BaseName       string
	CompositedName string

	Width   int
	Height  int
	FPS     int32
	Codec   string
	Quality int
	Hold    sequencer.HoldMode
	Buffers int
}

func (o Options) BasePath() string       { return filepath.Join(o.OutputDir, o.BaseName) }
func (o Options) CompositedPath() string { return filepath.Join(o.OutputDir, o.CompositedName) }

func (o Options) sinkSettings() sink.Settings {
	return sink.Settings{
		Path:        o.BasePath(),
		FileFormat:  "mp4",
		Codec:       o.Codec,
		PixelFormat: sink.PixelFormatRGBA,
		FrameRate:   o.FPS,
		Width:       o.Width,
		Height:      o.Height,
		Quality:     o.Quality,
		Buffers:     o.Buffers,
	}
}

// Converter turns the first ItemCount images of a source into a video.
type Converter struct {
	src      source.Source
	sink     sink.Sink
	exporter export.Exporter
	opts     Options
	logger   zerolog.Logger
}

func NewConverter(src source.Source, snk sink.Sink, exp export.Exporter, opts Options, logger zerolog.Logger) *Converter {
	return &Converter{
		src:      src,
		sink:     snk,
		exporter: exp,
		opts:     opts,
		logger:   logger.With().Str("component", "converter").Logger(),
	}
}

// Start plans a run for prefs and begins writing it in the background.
// Input problems and unusable output paths are reported here, before any
// sink is opened.
func (c *Converter) Start(ctx context.Context, prefs config.Preferences) (*Run, error) {
	r := &Run{
		id:       uuid.New(),
		c:        c,
		prefs:    prefs,
		state:    StateIdle,
		progress: make(chan int, max(prefs.ItemCount, 0)),
		done:     make(chan struct{}),
	}
	r.logger = c.logger.With().Str("run_id", r.id.String()).Logger()

	r.setState(StatePlanning)
	if err := c.plan(r); err != nil {
		r.setState(StateFailed)
		return nil, err
	}
	if err := prepareOutput(c.opts.BasePath(), c.opts.CompositedPath()); err != nil {
		r.setState(StateFailed)
		return nil, newError(CategoryResource, "prepare output", -1, err)
	}

	r.logger.Info().
		Int("items", prefs.ItemCount).
		Str("style", string(prefs.Style)).
		Str("total", fmt.Sprintf("%.2fs", r.plan.Total.Seconds())).
		Msg("run planned")

	go r.execute(ctx)
	return r, nil
}

// Convert runs a conversion to the end.
func (c *Converter) Convert(ctx context.Context, prefs config.Preferences) (Result, error) {
	r, err := c.Start(ctx, prefs)
	if err != nil {
		return Result{}, err
	}
	return r.Wait(ctx)
}

func (c *Converter) plan(r *Run) error {
	prefs := r.prefs
	if err := prefs.Validate(); err != nil {
		return inputError("preferences", err)
	}
	if prefs.ItemCount == 0 {
		return inputError("select items", ErrNoSelection)
	}
	if n := c.src.Count(); prefs.ItemCount > n {
		return inputError("select items", fmt.Errorf("%w: %d of %d", ErrTooManyItems, prefs.ItemCount, n))
	}

	fps := c.opts.FPS
	seq, err := sequencer.New(prefs.ItemCount, timeline.FromSeconds(prefs.Display, fps), fps, c.opts.Hold)
	if err != nil {
		return inputError("sequence", err)
	}

	transition := timeline.FromSeconds(prefs.Transition, fps)
	if prefs.Style == export.StyleNone {
		transition = timeline.Zero(fps)
	}
	plan, err := timeline.Build(timeline.ItemsOf(seq.SegmentDurations()), transition)
	if err != nil {
		return inputError("plan", err)
	}

	r.seq = seq
	r.plan = plan
	return nil
}

// composites reports whether a run with these preferences renders the
// transition composite after the base file.
func composites(prefs config.Preferences, plan *timeline.Plan, items int) bool {
	return prefs.Style != export.StyleNone && !plan.Transition.IsZero() && items >= 2
}
