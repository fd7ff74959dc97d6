package flow

import (
	"context"
	"math/rand/v2"

	"github.com/limen-app/limen/internal/domain"
)

// QuestionSource chooses the guiding question shown after a mood is picked.
type QuestionSource interface {
	Question(ctx context.Context, mood domain.Mood) string
}

// PoolQuestions draws uniformly at random from the mood's question pool.
type PoolQuestions struct {
	intn func(n int) int
}

// NewPoolQuestions uses intn to pick an index; nil means math/rand/v2.
func NewPoolQuestions(intn func(n int) int) PoolQuestions {
	if intn == nil {
		intn = rand.IntN
	}
	return PoolQuestions{intn: intn}
}

func (p PoolQuestions) Question(ctx context.Context, mood domain.Mood) string {
	d, ok := mood.Describe()
	if !ok || len(d.GuidingQuestions) == 0 {
		return ""
	}
	intn := p.intn
	if intn == nil {
		intn = rand.IntN
	}
	return d.GuidingQuestions[intn(len(d.GuidingQuestions))]
}

// GeneratedQuestions asks the generator, falling back to the mood's fixed
// question on failure.
type GeneratedQuestions struct {
	gen *Generation
}

func NewGeneratedQuestions(gen *Generation) GeneratedQuestions {
	return GeneratedQuestions{gen: gen}
}

func (g GeneratedQuestions) Question(ctx context.Context, mood domain.Mood) string {
	q, _ := g.gen.Question(ctx, mood)
	return q
}
