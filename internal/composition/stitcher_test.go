package composition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/media"
	"github.com/ivlev/photo2video/internal/timeline"
)

func fakeProbe(durations map[string]timeline.TimeValue) func(string) (media.Info, error) {
	return func(path string) (media.Info, error) {
		d, ok := durations[path]
		if !ok {
			return media.Info{}, errors.New("not an mp4")
		}
		return media.Info{Path: path, Duration: d}, nil
	}
}

func TestStitch(t *testing.T) {
	exp := &fakeExporter{}
	s := NewStitcher(exp, testLogger)
	s.probe = fakeProbe(map[string]timeline.TimeValue{
		"a.mp4": timeline.New(3000, 1000),
		"b.mp4": timeline.New(120, 30),
		"c.mp4": timeline.New(5*90000, 90000),
	})

	spec := StitchSpec{Style: export.StylePush, Direction: export.FromLeft, Transition: 1}
	out, plan, err := s.Stitch(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"}, spec, t.TempDir()+"/out.mp4")
	require.NoError(t, err)

	assert.Equal(t, exp.req.Output, out)
	assert.True(t, plan.Total.Equal(timeline.New(10, 1)), "3+4+5 minus two 1s transitions")

	require.Len(t, exp.req.Clips, 3)
	assert.Equal(t, "b.mp4", exp.req.Clips[1].Path)
	assert.True(t, exp.req.Clips[1].Range.Start.IsZero())
	assert.True(t, exp.req.Clips[1].Range.Duration.Equal(timeline.New(4, 1)))

	require.Len(t, exp.req.Transitions, 2)
	assert.True(t, exp.req.Transitions[0].Range.Start.Equal(timeline.New(2, 1)))
	assert.True(t, exp.req.Transitions[1].Range.Start.Equal(timeline.New(5, 1)))
}

func TestStitch_Errors(t *testing.T) {
	exp := &fakeExporter{}
	s := NewStitcher(exp, testLogger)
	s.probe = fakeProbe(map[string]timeline.TimeValue{
		"short.mp4": timeline.New(1, 1),
		"long.mp4":  timeline.New(10, 1),
	})

	_, _, err := s.Stitch(context.Background(), nil, StitchSpec{}, "out.mp4")
	assert.ErrorIs(t, err, ErrNoSelection)

	_, _, err = s.Stitch(context.Background(), []string{"long.mp4", "missing.mp4"}, StitchSpec{Style: export.StyleFade, Transition: 1}, "out.mp4")
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CategoryInput, cerr.Category)
	assert.Equal(t, 1, cerr.Item)

	_, _, err = s.Stitch(context.Background(), []string{"long.mp4", "short.mp4"}, StitchSpec{Style: export.StyleFade, Transition: 2}, "out.mp4")
	assert.ErrorIs(t, err, timeline.ErrTransitionTooLong)

	exp.err = errors.New("boom")
	_, plan, err := s.Stitch(context.Background(), []string{"long.mp4", "short.mp4"}, StitchSpec{Style: export.StyleNone, Transition: 2}, "out.mp4")
	assert.Equal(t, CategoryExport, CategoryOf(err))
	assert.NotNil(t, plan)
	assert.Empty(t, exp.req.Transitions)
}
