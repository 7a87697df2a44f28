package composition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/sequencer"
	"github.com/ivlev/photo2video/internal/sink"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/timeline"
)

func testOptions(t *testing.T) Options {
	return Options{
		OutputDir:      filepath.Join(t.TempDir(), "out"),
		BaseName:       "AssembledVideo.mp4",
		CompositedName: "AnimatedVideo.mp4",
		Width:          64,
		Height:         36,
		FPS:            30,
		Codec:          "libx264",
		Hold:           sequencer.HoldHalf,
		Buffers:        2,
	}
}

func testPrefs(items int) config.Preferences {
	p := config.DefaultPreferences()
	p.Style = export.StyleFade
	p.Transition = 0.5
	p.Display = 1
	p.ItemCount = items
	return p
}

func collect(ch <-chan int) []int {
	var out []int
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestStart_NoSelection(t *testing.T) {
	snk := &fakeSink{}
	c := NewConverter(source.NewSlateSource(3), snk, &fakeExporter{}, testOptions(t), testLogger)

	run, err := c.Start(context.Background(), testPrefs(0))

	require.Error(t, err)
	assert.Nil(t, run)
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, CategoryInput, CategoryOf(err))
	assert.Contains(t, err.Error(), "input error")
	assert.Zero(t, snk.opened, "no sink is opened for invalid input")
}

func TestStart_InputErrors(t *testing.T) {
	tooLong := testPrefs(3)
	tooLong.Transition = 1.5

	badStyle := testPrefs(3)
	badStyle.Style = "spin"

	tests := []struct {
		name  string
		prefs config.Preferences
		want  error
	}{
		{"more than the source", testPrefs(4), ErrTooManyItems},
		{"transition too long", tooLong, timeline.ErrTransitionTooLong},
		{"bad style", badStyle, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snk := &fakeSink{}
			c := NewConverter(source.NewSlateSource(3), snk, &fakeExporter{}, testOptions(t), testLogger)

			_, err := c.Start(context.Background(), tt.prefs)
			require.Error(t, err)
			assert.Equal(t, CategoryInput, CategoryOf(err))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Zero(t, snk.opened)
		})
	}
}

func TestConvert_WritesKeyframesAndComposite(t *testing.T) {
	snk := &fakeSink{}
	exp := &fakeExporter{}
	opts := testOptions(t)
	c := NewConverter(source.NewSlateSource(3), snk, exp, opts, testLogger)

	run, err := c.Start(context.Background(), testPrefs(3))
	require.NoError(t, err)
	_, err = uuid.Parse(run.ID())
	require.NoError(t, err)

	res, err := run.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, collect(run.Progress()))
	assert.Equal(t, StateExported, run.State())

	sess := snk.session()
	want := []timeline.TimeValue{
		timeline.New(0, 30), timeline.New(15, 30),
		timeline.New(30, 30), timeline.New(45, 30),
		timeline.New(60, 30), timeline.New(75, 30),
	}
	assert.Equal(t, want, sess.appended)
	assert.Equal(t, timeline.New(90, 30), sess.ended)
	assert.Equal(t, 1, sess.finished)
	assert.Equal(t, 1, sess.finalized)
	assert.Zero(t, sess.pool.InUse(), "every pixel buffer is returned")

	assert.Equal(t, opts.BasePath(), res.Output)
	assert.Equal(t, opts.CompositedPath(), res.Composited)
	assert.Equal(t, run.ID(), res.RunID)
	assert.True(t, res.Duration.Equal(timeline.New(3, 1)))
	assert.True(t, res.Plan.Total.Equal(timeline.New(2, 1)), "3 x 1s minus 2 x 0.5s")

	require.Equal(t, 1, exp.calls)
	require.Len(t, exp.req.Clips, 3)
	assert.True(t, exp.req.Clips[2].Range.Start.Equal(timeline.New(2, 1)))
	require.Len(t, exp.req.Transitions, 2)
	assert.True(t, exp.req.Transitions[0].Range.Start.Equal(timeline.New(15, 30)))
	assert.True(t, exp.req.Transitions[1].Range.Start.Equal(timeline.New(30, 30)))
	assert.Equal(t, export.StyleFade, exp.req.Style)
}

func TestConvert_SinkFailsOnSecondFrame(t *testing.T) {
	snk := &fakeSink{failOn: 2}
	exp := &fakeExporter{}
	opts := testOptions(t)
	c := NewConverter(source.NewSlateSource(3), snk, exp, opts, testLogger)

	run, err := c.Start(context.Background(), testPrefs(3))
	require.NoError(t, err)
	res, err := run.Wait(context.Background())

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CategoryWrite, cerr.Category)
	assert.Equal(t, 0, cerr.Item)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "write error: append item 0: disk full", err.Error())

	sess := snk.session()
	assert.Equal(t, 1, sess.finished, "input is marked finished exactly once")
	assert.Equal(t, 1, sess.finalized)
	assert.Zero(t, sess.pool.InUse())
	assert.NoFileExists(t, opts.BasePath(), "partial output is deleted")

	assert.Empty(t, collect(run.Progress()))
	assert.Equal(t, StateFailed, run.State())
	assert.Empty(t, res.Output)
	assert.Zero(t, exp.calls)
}

func TestConvert_EncoderExitExplainsWriteFailure(t *testing.T) {
	encErr := fmt.Errorf("%w: exit status 1, output: unknown encoder", sink.ErrSessionAborted)
	snk := &fakeSink{failOn: 3, finalizeErr: encErr}
	c := NewConverter(source.NewSlateSource(3), snk, &fakeExporter{}, testOptions(t), testLogger)

	_, err := c.Convert(context.Background(), testPrefs(3))

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CategoryWrite, cerr.Category)
	assert.Equal(t, 1, cerr.Item)
	assert.ErrorIs(t, err, sink.ErrSessionAborted)
	assert.Contains(t, err.Error(), "unknown encoder")
}

func TestConvert_NoStyleSkipsComposite(t *testing.T) {
	snk := &fakeSink{}
	exp := &fakeExporter{}
	prefs := testPrefs(2)
	prefs.Style = export.StyleNone

	c := NewConverter(source.NewSlateSource(2), snk, exp, testOptions(t), testLogger)
	run, err := c.Start(context.Background(), prefs)
	require.NoError(t, err)

	res, err := run.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, run.State())
	assert.Empty(t, res.Composited)
	assert.Zero(t, exp.calls)
	assert.True(t, res.Plan.Transition.IsZero())
}

func TestConvert_SingleItemSkipsComposite(t *testing.T) {
	exp := &fakeExporter{}
	c := NewConverter(source.NewSlateSource(1), &fakeSink{}, exp, testOptions(t), testLogger)

	res, err := c.Convert(context.Background(), testPrefs(1))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Output)
	assert.Zero(t, exp.calls)
}

func TestConvert_ExportFailureKeepsBase(t *testing.T) {
	exp := &fakeExporter{err: errors.New("xfade exploded")}
	opts := testOptions(t)
	c := NewConverter(source.NewSlateSource(2), &fakeSink{}, exp, opts, testLogger)

	res, err := c.Convert(context.Background(), testPrefs(2))

	assert.Equal(t, CategoryExport, CategoryOf(err))
	assert.Equal(t, opts.BasePath(), res.Output)
	assert.FileExists(t, opts.BasePath())
	assert.Empty(t, res.Composited)
}

func TestConvert_PermissionError(t *testing.T) {
	snk := &fakeSink{openErr: fmt.Errorf("open output: %w", fs.ErrPermission)}
	c := NewConverter(source.NewSlateSource(2), snk, &fakeExporter{}, testOptions(t), testLogger)

	_, err := c.Convert(context.Background(), testPrefs(2))
	require.Error(t, err)
	assert.True(t, IsPermission(err))
	assert.False(t, IsPermission(errors.New("other")))
}

func TestConvert_RemovesStaleOutputs(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, prepareOutput(opts.BasePath()))
	require.NoError(t, writeEmpty(opts.CompositedPath()))

	prefs := testPrefs(2)
	prefs.Style = export.StyleNone
	c := NewConverter(source.NewSlateSource(2), &fakeSink{}, &fakeExporter{}, opts, testLogger)

	_, err := c.Convert(context.Background(), prefs)
	require.NoError(t, err)
	assert.NoFileExists(t, opts.CompositedPath())
	assert.FileExists(t, opts.BasePath())
}

func TestPrepareOutputRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	err := prepareOutput(dir)
	assert.ErrorIs(t, err, ErrOutputNotFile)
}

func TestStart_OutputPathIsDirectory(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.BasePath(), 0755))
	snk := &fakeSink{}
	c := NewConverter(source.NewSlateSource(2), snk, &fakeExporter{}, opts, testLogger)

	run, err := c.Start(context.Background(), testPrefs(2))

	require.Error(t, err)
	assert.Nil(t, run)
	assert.Equal(t, CategoryResource, CategoryOf(err))
	assert.ErrorIs(t, err, ErrOutputNotFile)
	assert.Zero(t, snk.opened)
	assert.DirExists(t, opts.BasePath())
}

func TestConvert_BufferShortageIsResourceError(t *testing.T) {
	snk := &fakeSink{drainPool: true}
	c := NewConverter(source.NewSlateSource(2), snk, &fakeExporter{}, testOptions(t), testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	run, err := c.Start(ctx, testPrefs(2))
	require.NoError(t, err)

	_, err = run.Wait(context.Background())

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CategoryResource, cerr.Category)
	assert.Equal(t, 0, cerr.Item)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, snk.session().appended)
	assert.Equal(t, StateFailed, run.State())
}

func TestRunWaitHonoursContext(t *testing.T) {
	r := &Run{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StatePlanning.canMoveTo(StateFailed))
	assert.True(t, StateCompleted.canMoveTo(StateCompositing))
	assert.False(t, StateCompleted.canMoveTo(StateFailed))
	assert.False(t, StateIdle.canMoveTo(StateWritingFrames))
	assert.False(t, StateExported.canMoveTo(StateFailed))
	assert.Equal(t, "writing_frames", StateWritingFrames.String())
}
