// Package composition turns a selection of stills into a video: it plans
// the timeline, writes keyframes into a sink and optionally renders the
// transition composite.
package composition

import (
	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/timeline"
)

// OpacityRamp fades a layer linearly from From to To over Range.
type OpacityRamp struct {
	From  float64
	To    float64
	Range timeline.TimeRange
}

// LayerInstruction places one item's lane in an Instruction. Layers are
// listed front to back.
type LayerInstruction struct {
	Lane    timeline.Lane
	Item    int
	Opacity *OpacityRamp
}

type Instruction struct {
	Range  timeline.TimeRange
	Layers []LayerInstruction
}

// Instructions renders plan as ordered composition instructions.
// Zero-length transitions are dropped.
func Instructions(plan *timeline.Plan) []Instruction {
	out := make([]Instruction, 0, len(plan.Segments))
	for _, seg := range plan.Segments {
		switch seg.Kind {
		case timeline.PassThrough:
			out = append(out, Instruction{
				Range:  seg.Range,
				Layers: []LayerInstruction{{Lane: seg.Lane, Item: seg.Item}},
			})
		case timeline.Transition:
			if seg.Range.Duration.IsZero() {
				continue
			}
			out = append(out, Instruction{
				Range: seg.Range,
				Layers: []LayerInstruction{
					{Lane: seg.Lane, Item: seg.Item, Opacity: &OpacityRamp{From: 1, To: 0, Range: seg.Range}},
					{Lane: seg.BackgroundLane, Item: seg.Background},
				},
			})
		}
	}
	return out
}

// Transitions returns the exporter's view of the non-empty transitions
// of plan.
func Transitions(plan *timeline.Plan) []export.Transition {
	var out []export.Transition
	for _, seg := range plan.Transitions() {
		if seg.Range.Duration.IsZero() {
			continue
		}
		out = append(out, export.Transition{
			Range:          seg.Range,
			Foreground:     seg.Item,
			ForegroundLane: seg.Lane,
			Background:     seg.Background,
			BackgroundLane: seg.BackgroundLane,
			StartOpacity:   1,
			EndOpacity:     0,
		})
	}
	return out
}
