package domain

// Step is the position of a session in the reflection flow.
type Step int

const (
	StepLanding Step = iota
	StepMoodSelection
	StepWriting
	StepGenerating
	StepReflectionShown
	StepClosing
	StepSaved
	StepDiscarded
)

var stepNames = [...]string{
	StepLanding:         "landing",
	StepMoodSelection:   "mood-selection",
	StepWriting:         "writing",
	StepGenerating:      "generating",
	StepReflectionShown: "reflection-shown",
	StepClosing:         "closing",
	StepSaved:           "saved",
	StepDiscarded:       "discarded",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// MarshalText renders the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the mutable state of one pass through the flow.
type Session struct {
	Step              Step
	Mood              Mood // empty until a mood is selected
	GuidingQuestion   string
	WrittenText       string
	GeneratedResponse *string

	// Epoch changes whenever the session is reset or a mood is selected.
	// Generation results issued under an older epoch are dropped.
	Epoch uint64
}

// NewSession returns a session at the landing step.
func NewSession() Session {
	return Session{Step: StepLanding}
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.GeneratedResponse != nil {
		v := *s.GeneratedResponse
		s.GeneratedResponse = &v
	}
	return s
}
