package trial

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// State is a step of the trial lifecycle.
type State int

const (
	Created State = iota
	Prepared
	StimulusShown
	ResponseWindowOpen
	Responded
	TimedOut
	ChoiceLocked
	OutcomeShown
	IntervalWait
	Logged
)

var stateNames = [...]string{
	Created:            "created",
	Prepared:           "prepared",
	StimulusShown:      "stimulus_shown",
	ResponseWindowOpen: "response_window_open",
	Responded:          "responded",
	TimedOut:           "timed_out",
	ChoiceLocked:       "choice_locked",
	OutcomeShown:       "outcome_shown",
	IntervalWait:       "interval_wait",
	Logged:             "logged",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// next lists the states reachable from each state. The graph is acyclic
// and ends at Logged.
var next = map[State][]State{
	Created:            {Prepared},
	Prepared:           {StimulusShown},
	StimulusShown:      {ResponseWindowOpen},
	ResponseWindowOpen: {Responded, TimedOut},
	Responded:          {ChoiceLocked},
	TimedOut:           {ChoiceLocked},
	ChoiceLocked:       {OutcomeShown, IntervalWait},
	OutcomeShown:       {IntervalWait},
	IntervalWait:       {Logged},
}

// CanTransition reports whether to directly follows from.
func CanTransition(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

func illegal(from, to State) error {
	return goerr.Wrap(errs.ErrIllegalTransition, "trial step out of order",
		goerr.V("from", from.String()), goerr.V("to", to.String()))
}
