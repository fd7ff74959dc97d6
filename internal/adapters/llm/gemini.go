package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/limen-app/limen/internal/domain"
)

// GeminiConfig selects the backend: an API key uses the Gemini API,
// otherwise Vertex AI is used with project and location.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator creates a ReflectionGenerator backed by Gemini.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini needs an API key or a project and location")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiGenerator{client: client, modelName: model}, nil
}

func (g *GeminiGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	text, err := g.generate(ctx, BuildPrompt(KindGuidingQuestion, mood, ""), 64)
	if err != nil {
		return "", err
	}
	return CleanQuestion(text), nil
}

func (g *GeminiGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	out, err := g.generate(ctx, BuildPrompt(KindEmpathicResponse, mood, text), 1024)
	if err != nil {
		return "", err
	}
	return CleanResponse(out), nil
}

func (g *GeminiGenerator) generate(ctx context.Context, p Prompt, maxTokens int32) (string, error) {
	temp := float32(0.7)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
