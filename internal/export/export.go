// Package export renders the transition composite of a conversion or a
// set of clips with ffmpeg's xfade filter.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivlev/photo2video/internal/timeline"
)

var ErrInvalidRequest = errors.New("invalid export request")

// Clip is the part of an input file that becomes one timeline item.
type Clip struct {
	Path  string
	Range timeline.TimeRange
}

// Transition describes one crossfade of the plan. The foreground item
// fades from StartOpacity to EndOpacity over Range while the background
// item plays underneath it.
type Transition struct {
	Range          timeline.TimeRange
	Foreground     int
	ForegroundLane timeline.Lane
	Background     int
	BackgroundLane timeline.Lane
	StartOpacity   float64
	EndOpacity     float64
}

// Request is one composite render.
type Request struct {
	Clips       []Clip
	Transitions []Transition
	Style       Style
	Direction   Direction
	Output      string

	Width   int
	Height  int
	FPS     int32
	Codec   string
	Quality int
}

func (r Request) Validate() error {
	switch {
	case len(r.Clips) == 0:
		return fmt.Errorf("%w: no clips", ErrInvalidRequest)
	case r.Output == "":
		return fmt.Errorf("%w: empty output path", ErrInvalidRequest)
	case len(r.Transitions) != 0 && len(r.Transitions) != len(r.Clips)-1:
		return fmt.Errorf("%w: %d transitions for %d clips", ErrInvalidRequest, len(r.Transitions), len(r.Clips))
	}
	for i, c := range r.Clips {
		if c.Path == "" || !c.Range.Duration.Valid() || c.Range.Duration.IsNegative() || c.Range.Duration.IsZero() {
			return fmt.Errorf("%w: clip %d", ErrInvalidRequest, i)
		}
	}
	return nil
}

// Exporter renders a Request and returns the path it wrote.
type Exporter interface {
	Export(ctx context.Context, req Request) (string, error)
}
