package domain

import (
	"fmt"
	"strings"
)

// Mood is the emotional state a reflection starts from.
type Mood string

const (
	MoodAnxiety   Mood = "anxiety"   // Whirlwind
	MoodOverwhelm Mood = "overwhelm" // Storm
	MoodConfusion Mood = "confusion" // Fog
	MoodFree      Mood = "free"      // Clearing
)

// MoodDescriptor is the static presentation and prompting data for a mood.
type MoodDescriptor struct {
	Mood             Mood     `json:"mood"`
	Label            string   `json:"label"`
	Description      string   `json:"description"`
	GuidingQuestions []string `json:"guiding_questions"`

	// Substituted when the generator cannot produce a question or response.
	FallbackQuestion string `json:"-"`
	FallbackResponse string `json:"-"`
}

var moodOrder = []Mood{MoodAnxiety, MoodOverwhelm, MoodConfusion, MoodFree}

var moodDescriptors = map[Mood]MoodDescriptor{
	MoodAnxiety: {
		Mood:        MoodAnxiety,
		Label:       "Whirlwind",
		Description: "Many things moving too fast.",
		GuidingQuestions: []string{
			"What seems to be accelerating right now?",
			"What would you like to slow down?",
			"Among so many movements, what stands out most?",
		},
		FallbackQuestion: "What feels most uncertain right now?",
		FallbackResponse: "Thank you for putting this into words.\n" +
			"There is a lot moving inside what you wrote.\n" +
			"It took presence to pause in the middle of it.\n" +
			"What is here with you in this slower moment?",
	},
	MoodOverwhelm: {
		Mood:        MoodOverwhelm,
		Label:       "Storm",
		Description: "Weight, intensity, and difficulty seeing the horizon.",
		GuidingQuestions: []string{
			"What weighs heaviest right now?",
			"If you could set something aside, what would it be?",
			"Where do you feel this intensity in your body?",
		},
		FallbackQuestion: "What weighs heaviest at this moment?",
		FallbackResponse: "Thank you for sharing this.\n" +
			"What you carry comes through in your words.\n" +
			"Naming it took courage.\n" +
			"What would it be like to let this rest here for a moment?",
	},
	MoodConfusion: {
		Mood:        MoodConfusion,
		Label:       "Fog",
		Description: "The path is unclear right now.",
		GuidingQuestions: []string{
			"What feels uncertain right now?",
			"What question keeps coming back?",
			"What would clarity about this look like?",
		},
		FallbackQuestion: "What question keeps returning?",
		FallbackResponse: "Thank you for sharing this.\n" +
			"What you wrote shows presence.\n" +
			"Not knowing is a place too, and you are here in it.\n" +
			"What remains true for you, even without a clear path?",
	},
	MoodFree: {
		Mood:        MoodFree,
		Label:       "Clearing",
		Description: "An open space.",
		GuidingQuestions: []string{
			"What is present for you right now?",
			"What do you wish to express?",
			"What are you noticing?",
		},
		FallbackQuestion: "What would you like to express?",
		FallbackResponse: "Thank you for sharing this.\n" +
			"There is openness in what you wrote.\n" +
			"Take a moment to simply notice that.\n" +
			"What else wants a little space right now?",
	},
}

// Moods returns every mood in display order.
func Moods() []Mood {
	out := make([]Mood, len(moodOrder))
	copy(out, moodOrder)
	return out
}

// Valid reports whether m belongs to the closed set of moods.
func (m Mood) Valid() bool {
	_, ok := moodDescriptors[m]
	return ok
}

// Describe returns the descriptor of m. The returned question pool is a copy.
func (m Mood) Describe() (MoodDescriptor, bool) {
	d, ok := moodDescriptors[m]
	if !ok {
		return MoodDescriptor{}, false
	}
	d.GuidingQuestions = append([]string(nil), d.GuidingQuestions...)
	return d, true
}

// Descriptors returns the descriptors of every mood in display order.
func Descriptors() []MoodDescriptor {
	out := make([]MoodDescriptor, 0, len(moodOrder))
	for _, m := range moodOrder {
		d, _ := m.Describe()
		out = append(out, d)
	}
	return out
}

// ParseMood accepts a mood name, case-insensitively.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood %q", s)
	}
	return m, nil
}
