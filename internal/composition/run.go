package composition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/sequencer"
	"github.com/ivlev/photo2video/internal/sink"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/timeline"
)

// Result is what a run leaves behind. Output is set once the base file is
// complete and stays set when compositing fails afterwards.
type Result struct {
	RunID       string
	Output      string
	Composited  string
	Plan        *timeline.Plan
	Items       int
	Duration    timeline.TimeValue
	Writing     time.Duration
	Compositing time.Duration
}

// Run is one conversion. It is driven by a single worker goroutine.
type Run struct {
	id     uuid.UUID
	c      *Converter
	prefs  config.Preferences
	seq    sequencer.Sequence
	plan   *timeline.Plan
	logger zerolog.Logger

	mu    sync.Mutex
	state State

	progress chan int
	done     chan struct{}
	result   Result
	err      error
}

func (r *Run) ID() string { return r.id.String() }

func (r *Run) Plan() *timeline.Plan { return r.plan }

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress yields the number of items written so far, once per item. It
// is closed when the run ends.
func (r *Run) Progress() <-chan int { return r.progress }

// Wait blocks until the run ends or ctx is done. The run's own failure is
// returned as an *Error.
func (r *Run) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Run) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.canMoveTo(s) {
		panic(fmt.Sprintf("composition: illegal transition %s -> %s", r.state, s))
	}
	r.logger.Debug().Stringer("from", r.state).Stringer("to", s).Msg("state")
	r.state = s
}

func (r *Run) fail(err *Error) {
	r.setState(StateFailed)
	r.err = err
	r.logger.Error().Err(err).Str("category", err.Category.String()).Msg("run failed")
}

func (r *Run) execute(ctx context.Context) {
	defer close(r.done)
	defer close(r.progress)

	opts := r.c.opts
	r.result = Result{
		RunID:    r.ID(),
		Plan:     r.plan,
		Items:    r.prefs.ItemCount,
		Duration: r.seq.Duration(),
	}

	r.setState(StateWriterStarting)
	sess, err := r.c.sink.Open(ctx, opts.sinkSettings())
	if err != nil {
		r.fail(newError(CategoryResource, "open sink", -1, err))
		return
	}

	r.setState(StateWritingFrames)
	started := time.Now()
	if werr := r.writeFrames(ctx, sess); werr != nil {
		sess.MarkInputFinished()
		if err := sess.Finalize(context.WithoutCancel(ctx)); err != nil {
			if sink.IsAborted(err) {
				// The encoder's own exit status explains the failed write.
				werr = newError(werr.Category, werr.Op, werr.Item, err)
			} else {
				r.logger.Debug().Err(err).Msg("finalize after failure")
			}
		}
		os.Remove(opts.BasePath())
		r.fail(werr)
		return
	}

	sess.EndSession(r.seq.Duration())
	sess.MarkInputFinished()

	r.setState(StateFinalizing)
	if err := sess.Finalize(ctx); err != nil {
		os.Remove(opts.BasePath())
		r.fail(newError(CategoryWrite, "finalize", -1, err))
		return
	}
	r.result.Writing = time.Since(started)
	r.result.Output = opts.BasePath()

	r.setState(StateCompleted)
	r.logger.Info().Str("output", r.result.Output).Dur("took", r.result.Writing).Msg("base video written")

	if !composites(r.prefs, r.plan, r.prefs.ItemCount) {
		return
	}

	r.setState(StateCompositing)
	started = time.Now()
	out, err := r.c.exporter.Export(ctx, r.exportRequest())
	r.result.Compositing = time.Since(started)
	if err != nil {
		r.fail(newError(CategoryExport, "composite", -1, err))
		return
	}
	r.result.Composited = out
	r.setState(StateExported)
	r.logger.Info().Str("output", out).Dur("took", r.result.Compositing).Msg("composite exported")
}

// writeFrames walks the keyframes in order. Each image is drawn once, at
// its start keyframe, and its pixel buffer goes back to the pool after the
// end keyframe or on any failure.
func (r *Run) writeFrames(ctx context.Context, sess sink.Session) *Error {
	pool := sess.Buffers()
	var buf *image.RGBA
	defer func() {
		if buf != nil {
			pool.Put(buf)
		}
	}()

	for f := range r.seq.All() {
		if f.Edge == sequencer.EdgeStart {
			var werr *Error
			if buf, werr = r.draw(ctx, pool, f.Item); werr != nil {
				return werr
			}
		}
		if err := sess.WaitReady(ctx); err != nil {
			return newError(CategoryWrite, "wait for sink", f.Item, err)
		}
		if err := sess.Append(buf, f.PTS); err != nil {
			return newError(CategoryWrite, "append", f.Item, err)
		}
		if f.Edge == sequencer.EdgeEnd {
			pool.Put(buf)
			buf = nil
			r.progress <- f.Item + 1
		}
	}
	return nil
}

// draw loads image i and fits it into a buffer borrowed from pool.
func (r *Run) draw(ctx context.Context, pool *sink.BufferPool, i int) (*image.RGBA, *Error) {
	img, err := r.c.src.Load(ctx, i)
	if err != nil {
		return nil, newError(CategoryWrite, "load", i, err)
	}
	buf, err := pool.Get(ctx)
	if err != nil {
		return nil, newError(CategoryResource, "acquire buffer", i, err)
	}
	source.Fit(buf, img)
	return buf, nil
}

// exportRequest cuts the base file back into its items and joins them with
// the planned transitions.
func (r *Run) exportRequest() export.Request {
	opts := r.c.opts
	durations := r.seq.SegmentDurations()
	clips := make([]export.Clip, len(durations))
	cursor := timeline.Zero(opts.FPS)
	for i, d := range durations {
		clips[i] = export.Clip{
			Path:  opts.BasePath(),
			Range: timeline.TimeRange{Start: cursor, Duration: d},
		}
		cursor = cursor.Add(d)
	}
	return export.Request{
		Clips:       clips,
		Transitions: Transitions(r.plan),
		Style:       r.prefs.Style,
		Direction:   r.prefs.Direction,
		Output:      opts.CompositedPath(),
		FPS:         opts.FPS,
		Codec:       opts.Codec,
		Quality:     opts.Quality,
	}
}

// prepareOutput removes stale results and makes sure their directory
// exists.
func prepareOutput(paths ...string) error {
	for _, p := range paths {
		fi, err := os.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return err
		case !fi.Mode().IsRegular():
			return fmt.Errorf("%w: %s", ErrOutputNotFile, p)
		}
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove stale output: %w", err)
		}
	}
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}
