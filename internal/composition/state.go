package composition

// State is a step of a conversion run.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateWriterStarting
	StateWritingFrames
	StateFinalizing
	StateCompleted
	StateCompositing
	StateExported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateWriterStarting:
		return "writer_starting"
	case StateWritingFrames:
		return "writing_frames"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateCompositing:
		return "compositing"
	case StateExported:
		return "exported"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// next lists the legal successors of each state.
var next = map[State][]State{
	StateIdle:           {StatePlanning},
	StatePlanning:       {StateWriterStarting, StateFailed},
	StateWriterStarting: {StateWritingFrames, StateFailed},
	StateWritingFrames:  {StateFinalizing, StateFailed},
	StateFinalizing:     {StateCompleted, StateFailed},
	StateCompleted:      {StateCompositing},
	StateCompositing:    {StateExported, StateFailed},
}

func (s State) canMoveTo(to State) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}
