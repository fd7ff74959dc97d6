package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/limen-app/limen/internal/domain"
)

// MockGenerator answers instantly without a model, for local development.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	d, ok := mood.Describe()
	if !ok {
		return "", fmt.Errorf("unknown mood %q", mood)
	}
	return d.GuidingQuestions[0], nil
}

func (m *MockGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	return fmt.Sprintf(
		"Thank you for sharing this.\n\nYou wrote %q, and it is held here.\n\nPutting it into words took presence.\n\nWhat stays with you as you read it back?",
		strings.Join(words, " "),
	), nil
}
