package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

// DefaultTimeout bounds every generator call.
const DefaultTimeout = 12 * time.Second

var errEmptyResult = errors.New("generator returned empty text")

// Generation calls the generator once with a timeout and substitutes the
// mood's fixed fallback text on any failure. It never returns an error.
type Generation struct {
	gen     domain.ReflectionGenerator
	timeout time.Duration
}

func NewGeneration(gen domain.ReflectionGenerator, timeout time.Duration) *Generation {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generation{gen: gen, timeout: timeout}
}

// Question returns a guiding question for mood, and whether the fallback
// was used.
func (g *Generation) Question(ctx context.Context, mood domain.Mood) (string, bool) {
	d, _ := mood.Describe()
	out, err := g.run(ctx, "guiding_question", func(ctx context.Context) (string, error) {
		return g.gen.GuidingQuestion(ctx, mood)
	})
	if err != nil {
		return d.FallbackQuestion, true
	}
	return out, false
}

// Response returns the mirror response for text, and whether the fallback
// was used.
func (g *Generation) Response(ctx context.Context, mood domain.Mood, text string) (string, bool) {
	d, _ := mood.Describe()
	out, err := g.run(ctx, "empathic_response", func(ctx context.Context) (string, error) {
		return g.gen.EmpathicResponse(ctx, mood, text)
	})
	if err != nil {
		return d.FallbackResponse, true
	}
	return out, false
}

type result struct {
	text string
	err  error
}

// run waits for call at most g.timeout, even if call ignores ctx.
func (g *Generation) run(ctx context.Context, kind string, call func(context.Context) (string, error)) (string, error) {
	log := observability.LoggerFromContext(ctx).With("kind", kind)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		text, err := call(ctx)
		ch <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	if res.err == nil && strings.TrimSpace(res.text) == "" {
		res.err = errEmptyResult
	}

	elapsed := time.Since(start)
	observability.ObserveGeneration(kind, res.err != nil)
	if res.err != nil {
		log.Warn("generation failed, using fallback", "error", res.err, "elapsed_ms", elapsed.Milliseconds())
		return "", res.err
	}

	log.Info("generation done", "elapsed_ms", elapsed.Milliseconds())
	return strings.TrimSpace(res.text), nil
}
