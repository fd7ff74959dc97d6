package flow

import "github.com/limen-app/limen/internal/domain"

// Event is an input that may move a session to another step.
type Event string

const (
	EventBegin      Event = "begin"
	EventSelectMood Event = "select-mood"
	EventSubmit     Event = "submit"
	EventGenerated  Event = "generated"
	EventProceed    Event = "proceed"
	EventSave       Event = "save"
	EventDiscard    Event = "discard"
	EventStartAgain Event = "start-again"
	EventBack       Event = "back"
)

// transitions is the complete table of allowed moves. Anything missing
// from it is an invalid transition and is ignored.
var transitions = map[domain.Step]map[Event]domain.Step{
	domain.StepLanding: {
		EventBegin: domain.StepMoodSelection,
	},
	domain.StepMoodSelection: {
		EventSelectMood: domain.StepWriting,
		EventBack:       domain.StepLanding,
	},
	domain.StepWriting: {
		EventSubmit: domain.StepGenerating,
		EventBack:   domain.StepMoodSelection,
	},
	domain.StepGenerating: {
		EventGenerated: domain.StepReflectionShown,
	},
	domain.StepReflectionShown: {
		EventProceed: domain.StepClosing,
		EventBack:    domain.StepWriting,
	},
	domain.StepClosing: {
		EventSave:    domain.StepSaved,
		EventDiscard: domain.StepDiscarded,
		EventBack:    domain.StepReflectionShown,
	},
	domain.StepSaved: {
		EventStartAgain: domain.StepLanding,
	},
	domain.StepDiscarded: {
		EventStartAgain: domain.StepLanding,
	},
}

// Next returns the step reached from s on e, and whether the move exists.
func Next(s domain.Step, e Event) (domain.Step, bool) {
	to, ok := transitions[s][e]
	return to, ok
}
