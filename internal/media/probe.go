// Package media inspects encoded MP4 files.
package media

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/abema/go-mp4"

	"github.com/ivlev/photo2video/internal/timeline"
)

var (
	ErrNoVideo   = errors.New("no video track")
	ErrTimescale = errors.New("unsupported timescale")
)

// Info describes the video track of an MP4 file.
type Info struct {
	Path      string
	Duration  timeline.TimeValue
	Codec     string
	Width     int
	Height    int
	Samples   int
	FastStart bool
}

// Probe reads the movie header of path and reports its first video track.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	pi, err := mp4.Probe(f)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}

	for _, tr := range pi.Tracks {
		if tr.Codec != mp4.CodecAVC1 {
			continue
		}
		d, err := duration(tr.Duration, tr.Timescale)
		if err != nil {
			return Info{}, fmt.Errorf("%s: %w", path, err)
		}
		info := Info{
			Path:      path,
			Duration:  d,
			Codec:     "avc1",
			Samples:   len(tr.Samples),
			FastStart: pi.FastStart,
		}
		if tr.AVC != nil {
			info.Width = int(tr.AVC.Width)
			info.Height = int(tr.AVC.Height)
		}
		return info, nil
	}

	// Fall back to the movie duration for files whose codec go-mp4 does
	// not classify.
	if pi.Timescale > 0 && len(pi.Tracks) > 0 {
		d, err := duration(pi.Duration, pi.Timescale)
		if err != nil {
			return Info{}, fmt.Errorf("%s: %w", path, err)
		}
		return Info{
			Path:      path,
			Duration:  d,
			Codec:     "unknown",
			FastStart: pi.FastStart,
		}, nil
	}
	return Info{}, fmt.Errorf("%s: %w", path, ErrNoVideo)
}

// duration converts an mdhd/mvhd duration into a TimeValue.
func duration(value uint64, timescale uint32) (timeline.TimeValue, error) {
	if timescale == 0 || timescale > math.MaxInt32 {
		return timeline.TimeValue{}, fmt.Errorf("%w: %d", ErrTimescale, timescale)
	}
	if value > math.MaxInt64 {
		return timeline.TimeValue{}, fmt.Errorf("duration %d overflows", value)
	}
	return timeline.New(int64(value), int32(timescale)), nil
}
