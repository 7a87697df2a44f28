package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/timeline"
)

func TestFrameCount(t *testing.T) {
	tests := []struct {
		duration timeline.TimeValue
		fps      int32
		want     int64
	}{
		{timeline.New(1, 1), 30, 30},
		{timeline.New(3, 2), 30, 45},
		{timeline.New(1, 3), 25, 8}, // 8.33
		{timeline.New(1, 6), 3, 1},  // 0.5 rounds up
		{timeline.New(1001, 1000), 30, 30},
		{timeline.New(0, 1), 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FrameCount(tt.duration, tt.fps))
		})
	}
}

func TestTimestampsFor(t *testing.T) {
	second := timeline.New(1, 1)

	first, err := TimestampsFor(0, second, 30, HoldHalf)
	require.NoError(t, err)
	assert.True(t, first.Start.IsZero())
	assert.Equal(t, timeline.New(15, 30), first.End)

	for i := 0; i < 50; i++ {
		for _, hold := range []HoldMode{HoldHalf, HoldFull} {
			tm, err := TimestampsFor(i, second, 30, hold)
			require.NoError(t, err)
			assert.True(t, tm.Start.Less(tm.End), "item %d hold %s", i, hold)
			assert.Equal(t, int32(30), tm.Start.Timescale)
		}
	}

	full, err := TimestampsFor(2, second, 30, HoldFull)
	require.NoError(t, err)
	assert.Equal(t, timeline.New(60, 30), full.Start)
	assert.Equal(t, timeline.New(89, 30), full.End)
}

func TestTimestampsFor_TooShort(t *testing.T) {
	_, err := TimestampsFor(0, timeline.New(1, 30), 30, HoldHalf)
	assert.ErrorIs(t, err, ErrDisplayTooShort)

	_, err = TimestampsFor(0, timeline.New(1, 1), 0, HoldHalf)
	assert.Error(t, err)
}

func TestSequence_ThreeImages(t *testing.T) {
	seq, err := New(3, timeline.New(1, 1), 30, HoldHalf)
	require.NoError(t, err)

	var frames []Frame
	for f := range seq.All() {
		frames = append(frames, f)
	}
	require.Len(t, frames, 6)
	assert.True(t, frames[0].PTS.IsZero())
	for i := 1; i < len(frames); i++ {
		assert.True(t, frames[i-1].PTS.Less(frames[i].PTS), "frame %d not after frame %d", i, i-1)
	}
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, items(frames))
	assert.Equal(t, EdgeStart, frames[2].Edge)
	assert.Equal(t, EdgeEnd, frames[3].Edge)
}

func TestSequence_Restartable(t *testing.T) {
	seq, err := New(4, timeline.New(5, 2), 24, HoldFull)
	require.NoError(t, err)

	var first, second []Frame
	for f := range seq.All() {
		first = append(first, f)
	}
	for f := range seq.All() {
		second = append(second, f)
	}
	assert.Equal(t, first, second)

	// Early break stops iteration.
	n := 0
	for range seq.All() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestSequence_Duration(t *testing.T) {
	seq, err := New(3, timeline.New(2, 1), 30, HoldHalf)
	require.NoError(t, err)

	assert.Equal(t, timeline.New(180, 30), seq.Duration())
	for _, d := range seq.SegmentDurations() {
		assert.Equal(t, timeline.New(60, 30), d)
	}
	last := seq.At(seq.Len() - 1)
	assert.True(t, last.PTS.Less(seq.Duration()))
}

func TestParseHoldMode(t *testing.T) {
	m, err := ParseHoldMode("full")
	require.NoError(t, err)
	assert.Equal(t, HoldFull, m)

	m, err = ParseHoldMode("")
	require.NoError(t, err)
	assert.Equal(t, HoldHalf, m)

	_, err = ParseHoldMode("quarter")
	assert.Error(t, err)
}

func items(frames []Frame) []int {
	out := make([]int, len(frames))
	for i, f := range frames {
		out[i] = f.Item
	}
	return out
}
