package models

// State is a claim's lifecycle position.
//
//	submitted ──▶ under_review ──▶ approved
//	                    │   ▲  └──▶ rejected
//	                    │   │          │
//	                    └───┴─corrected┘
//
// Approved and Rejected are terminal; the only way out is an explicit, audited
// correction back to UnderReview.
type State string

const (
	StateSubmitted   State = "submitted"
	StateUnderReview State = "under_review"
	StateApproved    State = "approved"
	StateRejected    State = "rejected"
)

func (s State) IsValid() bool {
	switch s {
	case StateSubmitted, StateUnderReview, StateApproved, StateRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the state is a disposition.
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// Action names the event that moved a claim between states.
type Action string

const (
	ActionSubmitted   Action = "submitted"
	ActionEvaluated   Action = "evaluated"
	ActionReevaluated Action = "reevaluated"
	ActionApproved    Action = "approved"
	ActionRejected    Action = "rejected"
	ActionCorrected   Action = "corrected"
)

// transitions lists the state changes allowed per action, keyed by the prior state.
var transitions = map[Action]map[State]State{
	ActionEvaluated: {
		StateSubmitted: StateUnderReview,
	},
	ActionReevaluated: {
		StateUnderReview: StateUnderReview,
	},
	ActionApproved: {
		StateUnderReview: StateApproved,
	},
	ActionRejected: {
		StateUnderReview: StateRejected,
	},
	ActionCorrected: {
		StateUnderReview: StateUnderReview,
		StateApproved:    StateUnderReview,
		StateRejected:    StateUnderReview,
	},
}

// overrideTransitions widens approve/reject for overridden transitions: a
// reviewer may dispose of a claim that never received a report.
var overrideTransitions = map[Action]map[State]State{
	ActionApproved: {
		StateSubmitted:   StateApproved,
		StateUnderReview: StateApproved,
	},
	ActionRejected: {
		StateSubmitted:   StateRejected,
		StateUnderReview: StateRejected,
	},
}

// NextState returns the state an action leads to from s, and whether the move is allowed.
func (s State) NextState(action Action, overridden bool) (State, bool) {
	table := transitions
	if overridden {
		if t, ok := overrideTransitions[action]; ok {
			table = map[Action]map[State]State{action: t}
		}
	}
	next, ok := table[action][s]
	return next, ok
}
