package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoodsAreClosedSet(t *testing.T) {
	assert.Equal(t, []Mood{MoodAnxiety, MoodOverwhelm, MoodConfusion, MoodFree}, Moods())
	assert.False(t, Mood("").Valid())
	assert.False(t, Mood("joy").Valid())

	for _, d := range Descriptors() {
		assert.True(t, d.Mood.Valid())
		assert.NotEmpty(t, d.Label)
		assert.Len(t, d.GuidingQuestions, 3)
		assert.NotEmpty(t, d.FallbackQuestion)
		assert.NotEmpty(t, d.FallbackResponse)
	}
}

func TestDescribeReturnsCopy(t *testing.T) {
	d, ok := MoodFree.Describe()
	require.True(t, ok)
	d.GuidingQuestions[0] = "changed"

	again, _ := MoodFree.Describe()
	assert.Equal(t, "What is present for you right now?", again.GuidingQuestions[0])
}

func TestParseMood(t *testing.T) {
	m, err := ParseMood("  Confusion ")
	require.NoError(t, err)
	assert.Equal(t, MoodConfusion, m)

	_, err = ParseMood("calm")
	assert.Error(t, err)
}
