package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/limen-app/limen/internal/domain"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from domain.Step
		ev   Event
		to   domain.Step
		ok   bool
	}{
		{domain.StepLanding, EventBegin, domain.StepMoodSelection, true},
		{domain.StepLanding, EventBack, 0, false},
		{domain.StepMoodSelection, EventSelectMood, domain.StepWriting, true},
		{domain.StepMoodSelection, EventBack, domain.StepLanding, true},
		{domain.StepWriting, EventSubmit, domain.StepGenerating, true},
		{domain.StepWriting, EventProceed, 0, false},
		{domain.StepGenerating, EventBack, 0, false},
		{domain.StepGenerating, EventGenerated, domain.StepReflectionShown, true},
		{domain.StepReflectionShown, EventProceed, domain.StepClosing, true},
		{domain.StepClosing, EventSave, domain.StepSaved, true},
		{domain.StepClosing, EventDiscard, domain.StepDiscarded, true},
		{domain.StepClosing, EventBack, domain.StepReflectionShown, true},
		{domain.StepSaved, EventBack, 0, false},
		{domain.StepSaved, EventStartAgain, domain.StepLanding, true},
		{domain.StepDiscarded, EventStartAgain, domain.StepLanding, true},
		{domain.StepDiscarded, EventSave, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+string(tt.ev), func(t *testing.T) {
			to, ok := Next(tt.from, tt.ev)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.to, to)
			}
		})
	}
}

type fixedGenerator struct {
	text string
	err  error
}

func (g fixedGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	return g.text, g.err
}

func (g fixedGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	return g.text, g.err
}

type ignoringGenerator struct{ block chan struct{} }

func (g ignoringGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	<-g.block
	return "late", nil
}

func (g ignoringGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	<-g.block
	return "late", nil
}

func TestGeneration(t *testing.T) {
	ctx := context.Background()
	anxiety, _ := domain.MoodAnxiety.Describe()

	t.Run("trims successful output", func(t *testing.T) {
		g := NewGeneration(fixedGenerator{text: "  slow down?\n"}, time.Second)
		q, fellBack := g.Question(ctx, domain.MoodAnxiety)
		assert.False(t, fellBack)
		assert.Equal(t, "slow down?", q)
	})

	t.Run("error falls back", func(t *testing.T) {
		g := NewGeneration(fixedGenerator{err: errors.New("boom")}, time.Second)
		q, fellBack := g.Question(ctx, domain.MoodAnxiety)
		assert.True(t, fellBack)
		assert.Equal(t, anxiety.FallbackQuestion, q)

		r, fellBack := g.Response(ctx, domain.MoodAnxiety, "text")
		assert.True(t, fellBack)
		assert.Equal(t, anxiety.FallbackResponse, r)
	})

	t.Run("timeout even when ctx is ignored", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)

		g := NewGeneration(ignoringGenerator{block: block}, 30*time.Millisecond)
		start := time.Now()
		r, fellBack := g.Response(ctx, domain.MoodAnxiety, "text")
		assert.True(t, fellBack)
		assert.Equal(t, anxiety.FallbackResponse, r)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("zero timeout uses default", func(t *testing.T) {
		g := NewGeneration(fixedGenerator{text: "x"}, 0)
		assert.Equal(t, DefaultTimeout, g.timeout)
	})
}
