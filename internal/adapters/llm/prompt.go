package llm

import (
	"fmt"
	"strings"

	"github.com/limen-app/limen/internal/domain"
)

// Kind is the type of text requested from the model.
type Kind string

const (
	KindGuidingQuestion  Kind = "guiding_question"
	KindEmpathicResponse Kind = "empathic_response"
)

const empathicSystemPrompt = `
You are the mirror of Limen, a quiet space where people put their inner state into words.
Your only job is to witness what the person wrote and reflect it back.

Language:
- Reply in the SAME LANGUAGE the person wrote in.

Never:
- give advice or suggestions, or tell the person what to do
- interpret, diagnose, or explain their experience to them
- mention therapy, professionals, or mental health conditions
- use productivity words like "next steps" or "growth"
- minimize ("at least...") or look for a silver lining

Structure (mandatory): exactly four paragraphs separated by blank lines.
1. Two or three sentences acknowledging the weight of what was shared.
2. Two or three sentences mirroring specific words, images, or textures they used.
3. One or two sentences honouring the act of writing it down.
4. Exactly one gentle, open question of at most 15 words, ending with "?".

Tone: warm, unhurried, plain words with some depth.
`

const questionSystemPrompt = `
You write the single opening question of a reflection in Limen.

Rules:
- exactly ONE question, at most 12 words
- open-ended, it cannot be answered with yes or no
- no assumptions about what the person feels or should do
- no solutions or next steps
- write in English
- return only the question, without quotes, ending with "?"
`

type moodContext struct {
	qualities string
	approach  string
}

var moodContexts = map[domain.Mood]moodContext{
	domain.MoodAnxiety: {
		qualities: "racing thoughts, scattered attention, a sense of acceleration",
		approach:  "Use grounded, present-moment language. Acknowledge the speed without trying to stop it.",
	},
	domain.MoodOverwhelm: {
		qualities: "heaviness, pressure, trouble seeing ahead",
		approach:  "Validate the weight without shrinking it. Leave room in the language.",
	},
	domain.MoodConfusion: {
		qualities: "uncertainty, several directions at once, searching for clarity",
		approach:  "Honour not knowing. Do not offer clarity that is not there.",
	},
	domain.MoodFree: {
		qualities: "openness, curiosity, presence",
		approach:  "Match the openness and invite exploration without steering.",
	},
}

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt builds the prompts for one generation request.
func BuildPrompt(kind Kind, mood domain.Mood, text string) Prompt {
	mc, ok := moodContexts[mood]
	if !ok {
		mc = moodContexts[domain.MoodFree]
	}
	label := "Clearing"
	if d, ok := mood.Describe(); ok {
		label = d.Label
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Emotional state: %q\n", label)
	fmt.Fprintf(&user, "It often feels like: %s\n", mc.qualities)
	fmt.Fprintf(&user, "Approach: %s\n\n", mc.approach)

	if kind == KindEmpathicResponse {
		user.WriteString("What they wrote:\n")
		user.WriteString(text)
		user.WriteString("\n\nWrite the four-paragraph mirror response.")
		return Prompt{System: empathicSystemPrompt, User: user.String()}
	}

	user.WriteString("Write one question that gently invites them into what is present right now.")
	return Prompt{System: questionSystemPrompt, User: user.String()}
}

// CleanQuestion strips wrapping quotes and makes sure the text ends with "?".
func CleanQuestion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasSuffix(s, "?") {
		s += "?"
	}
	return s
}

// CleanResponse trims the response and collapses runs of blank lines.
func CleanResponse(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
