package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/limen-app/limen/internal/domain"
)

// RateLimited caps the calls made to the wrapped generator. Calls over the
// limit fail immediately with ErrRateLimited so the caller can fall back
// instead of queueing behind the model.
type RateLimited struct {
	next    domain.ReflectionGenerator
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of the same
// size. perMinute <= 0 disables limiting.
func NewRateLimited(next domain.ReflectionGenerator, perMinute int) domain.ReflectionGenerator {
	if perMinute <= 0 {
		return next
	}
	every := time.Minute / time.Duration(perMinute)
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Every(every), perMinute)}
}

func (r *RateLimited) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	if !r.limiter.Allow() {
		return "", ErrRateLimited
	}
	return r.next.GuidingQuestion(ctx, mood)
}

func (r *RateLimited) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	if !r.limiter.Allow() {
		return "", ErrRateLimited
	}
	return r.next.EmpathicResponse(ctx, mood, text)
}
