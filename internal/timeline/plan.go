// Package timeline computes the pass-through and transition ranges of a
// multi-segment composition and the two-lane layout used to render it.
package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("no items to plan")
	ErrTransitionTooLong = errors.New("transition is longer than the available overlap")
	ErrInvalidDuration   = errors.New("invalid duration")
)

// Lane is one of the two render tracks. Adjacent items always sit on
// different lanes so a crossfade never needs a third one.
type Lane int

const (
	LaneA Lane = 0
	LaneB Lane = 1
)

// LaneFor returns the lane of the item at position i.
func LaneFor(i int) Lane {
	return Lane(i % 2)
}

// Other returns the opposite lane.
func (l Lane) Other() Lane {
	return 1 - l
}

// Item is one source (a still image or a clip) in timeline order.
type Item struct {
	Index    int       `yaml:"index"`
	Duration TimeValue `yaml:"duration"`
	Handle   string    `yaml:"handle,omitempty"`
}

// TimeRange is [Start, Start+Duration).
type TimeRange struct {
	Start    TimeValue `yaml:"start"`
	Duration TimeValue `yaml:"duration"`
}

func (r TimeRange) End() TimeValue {
	return r.Start.Add(r.Duration)
}

type SegmentKind string

const (
	PassThrough SegmentKind = "pass_through"
	Transition  SegmentKind = "transition"
)

// Segment is one entry of a Plan. A pass-through segment shows Item on Lane.
// A transition fades Item (foreground, on Lane) out over Background on
// BackgroundLane.
type Segment struct {
	Kind           SegmentKind `yaml:"kind"`
	Range          TimeRange   `yaml:"range"`
	Item           int         `yaml:"item"`
	Lane           Lane        `yaml:"lane"`
	Background     int         `yaml:"background,omitempty"`
	BackgroundLane Lane        `yaml:"background_lane,omitempty"`
}

// Plan is the full composition layout. Segments are ordered by start time.
type Plan struct {
	Transition TimeValue `yaml:"transition"`
	Total      TimeValue `yaml:"total"`
	Segments   []Segment `yaml:"segments"`
	Lanes      []Lane    `yaml:"lanes"`
}

// PassThrough returns the pass-through segments in order.
func (p *Plan) PassThrough() []Segment {
	return p.filter(PassThrough)
}

// Transitions returns the transition segments in order, including
// zero-length ones.
func (p *Plan) Transitions() []Segment {
	return p.filter(Transition)
}

func (p *Plan) filter(kind SegmentKind) []Segment {
	var out []Segment
	for _, s := range p.Segments {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Build lays out items back to back, overlapping each adjacent pair by
// transition. It has no side effects and returns equal plans for equal input.
func Build(items []Item, transition TimeValue) (*Plan, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}
	if !transition.Valid() || transition.IsNegative() {
		return nil, fmt.Errorf("%w: transition %s", ErrInvalidDuration, transition)
	}
	for i, it := range items {
		if !it.Duration.Valid() || it.Duration.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has duration %s", ErrInvalidDuration, i, it.Duration)
		}
	}
	if err := checkOverlap(items, transition); err != nil {
		return nil, err
	}

	n := len(items)
	plan := &Plan{
		Transition: transition,
		Segments:   make([]Segment, 0, 2*n-1),
		Lanes:      make([]Lane, n),
	}

	cursor := Zero(transition.Timescale)
	for i, it := range items {
		lane := LaneFor(i)
		plan.Lanes[i] = lane

		r := TimeRange{Start: cursor, Duration: it.Duration}
		if i > 0 {
			r.Start = r.Start.Add(transition)
			r.Duration = r.Duration.Sub(transition)
		}
		if i < n-1 {
			r.Duration = r.Duration.Sub(transition)
		}
		plan.Segments = append(plan.Segments, Segment{
			Kind:  PassThrough,
			Range: r,
			Item:  it.Index,
			Lane:  lane,
		})

		cursor = cursor.Add(it.Duration).Sub(transition)

		if i < n-1 {
			plan.Segments = append(plan.Segments, Segment{
				Kind:           Transition,
				Range:          TimeRange{Start: cursor, Duration: transition},
				Item:           it.Index,
				Lane:           lane,
				Background:     items[i+1].Index,
				BackgroundLane: LaneFor(i + 1),
			})
		}
	}

	// cursor sits one transition before the end of the last item.
	plan.Total = cursor.Add(transition)

	if !plan.Total.Valid() {
		return nil, fmt.Errorf("%w: item and transition timescales have no common timescale", ErrInvalidDuration)
	}
	for _, seg := range plan.Segments {
		if !seg.Range.Start.Valid() || !seg.Range.Duration.Valid() {
			return nil, fmt.Errorf("%w: item %d does not fit the plan timescale", ErrInvalidDuration, seg.Item)
		}
	}
	return plan, nil
}

// checkOverlap rejects transitions that would produce a negative
// pass-through range anywhere in the plan.
func checkOverlap(items []Item, transition TimeValue) error {
	if len(items) < 2 || transition.IsZero() {
		return nil
	}
	for i := 0; i < len(items)-1; i++ {
		avail := Min(items[i].Duration, items[i+1].Duration)
		if !transition.Less(avail) {
			return fmt.Errorf("%w: %s between items %d and %d (available %s)",
				ErrTransitionTooLong, transition, items[i].Index, items[i+1].Index, avail)
		}
	}
	for i := 1; i < len(items)-1; i++ {
		if items[i].Duration.Less(transition.Mul(2)) {
			return fmt.Errorf("%w: item %d is shorter than two transitions",
				ErrTransitionTooLong, items[i].Index)
		}
	}
	return nil
}

// ItemsOf numbers durations 0..n-1 as plan items.
func ItemsOf(durations []TimeValue) []Item {
	items := make([]Item, len(durations))
	for i, d := range durations {
		items[i] = Item{Index: i, Duration: d}
	}
	return items
}
