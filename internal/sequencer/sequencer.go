// Package sequencer computes presentation timestamps for still images.
//
// Every image is written twice: once when its segment starts and once more
// before the next image begins. The encoder holds each frame until the next
// one arrives, so two keyframes per still are enough to pin its display time.
package sequencer

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ivlev/photo2video/internal/timeline"
)

var ErrDisplayTooShort = errors.New("display duration is shorter than two frames")

// HoldMode selects where the second keyframe of an image lands.
type HoldMode int

const (
	// HoldHalf places the second keyframe half a segment after the first.
	HoldHalf HoldMode = iota
	// HoldFull places it on the last tick of the segment.
	HoldFull
)

func (m HoldMode) String() string {
	switch m {
	case HoldFull:
		return "full"
	default:
		return "half"
	}
}

// ParseHoldMode accepts "half" and "full".
func ParseHoldMode(s string) (HoldMode, error) {
	switch s {
	case "", "half":
		return HoldHalf, nil
	case "full":
		return HoldFull, nil
	}
	return HoldHalf, fmt.Errorf("unknown hold mode %q", s)
}

// Timing is the pair of keyframe timestamps for one image, on the frame
// rate's timescale.
type Timing struct {
	Start timeline.TimeValue
	End   timeline.TimeValue
}

// Edge tells which of the two keyframes of an image a Frame is.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Frame is one write into the video sink.
type Frame struct {
	Item int
	Edge Edge
	PTS  timeline.TimeValue
}

// FrameCount returns round(fps * displayDuration) without leaving integer
// arithmetic. Halves round away from zero.
func FrameCount(displayDuration timeline.TimeValue, fps int32) int64 {
	if displayDuration.Timescale <= 0 {
		return 0
	}
	num := displayDuration.Value * int64(fps)
	den := int64(displayDuration.Timescale)
	return (2*num + den) / (2 * den)
}

// TimestampsFor returns the keyframe timestamps of the image at index.
func TimestampsFor(index int, displayDuration timeline.TimeValue, fps int32, hold HoldMode) (Timing, error) {
	if fps <= 0 {
		return Timing{}, fmt.Errorf("invalid frame rate %d", fps)
	}
	frames := FrameCount(displayDuration, fps)
	if frames < 2 {
		return Timing{}, fmt.Errorf("%w: %s at %d fps is %d frames", ErrDisplayTooShort, displayDuration, fps, frames)
	}
	return timing(index, frames, fps, hold), nil
}

func timing(index int, frames int64, fps int32, hold HoldMode) Timing {
	start := timeline.New(int64(index)*frames, fps)
	offset := frames / 2
	if hold == HoldFull {
		offset = frames - 1
	}
	return Timing{Start: start, End: start.Add(timeline.New(offset, fps))}
}

// Sequence is the ordered list of frames for count images. It is plain
// arithmetic over its fields, so iterating it twice yields the same frames.
type Sequence struct {
	count  int
	frames int64
	fps    int32
	hold   HoldMode
}

// New validates the parameters and returns the sequence for count images.
func New(count int, displayDuration timeline.TimeValue, fps int32, hold HoldMode) (Sequence, error) {
	if count < 0 {
		return Sequence{}, fmt.Errorf("invalid image count %d", count)
	}
	if _, err := TimestampsFor(0, displayDuration, fps, hold); err != nil {
		return Sequence{}, err
	}
	return Sequence{
		count:  count,
		frames: FrameCount(displayDuration, fps),
		fps:    fps,
		hold:   hold,
	}, nil
}

// Len is the number of frames, two per image.
func (s Sequence) Len() int { return 2 * s.count }

// Images is the number of images in the sequence.
func (s Sequence) Images() int { return s.count }

// Timing returns both keyframes of the image at index.
func (s Sequence) Timing(index int) Timing {
	return timing(index, s.frames, s.fps, s.hold)
}

// At returns the i-th frame.
func (s Sequence) At(i int) Frame {
	item := i / 2
	t := s.Timing(item)
	if i%2 == 0 {
		return Frame{Item: item, Edge: EdgeStart, PTS: t.Start}
	}
	return Frame{Item: item, Edge: EdgeEnd, PTS: t.End}
}

// All yields every frame in presentation order.
func (s Sequence) All() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(s.At(i)) {
				return
			}
		}
	}
}

// SegmentDurations reports how long each image stays on screen once the
// sink session is ended at Duration: every image runs until the next one
// starts, the last one until the end of its segment.
func (s Sequence) SegmentDurations() []timeline.TimeValue {
	out := make([]timeline.TimeValue, s.count)
	for i := range out {
		out[i] = timeline.New(s.frames, s.fps)
	}
	return out
}

// Duration is the session end time: count full segments.
func (s Sequence) Duration() timeline.TimeValue {
	return timeline.New(int64(s.count)*s.frames, s.fps)
}
