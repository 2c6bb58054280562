package pipeline

import "fmt"

type State string

const (
	StateReceived   State = "received"
	StateGated      State = "gated"
	StateGenerating State = "generating"
	StateParsed     State = "parsed"
	StateRecorded   State = "recorded"
	StateResponded  State = "responded"
	StateError      State = "error"
)

var transitions = map[State][]State{
	StateReceived:   {StateGated},
	StateGated:      {StateGenerating, StateError},
	StateGenerating: {StateParsed, StateError},
	StateParsed:     {StateRecorded, StateError},
	StateRecorded:   {StateResponded},
}

func (s State) Terminal() bool {
	return s == StateResponded || s == StateError
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is reported to the hook for every state change of a request.
type Transition struct {
	From  State
	To    State
	OrgID string
	Err   error
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}
