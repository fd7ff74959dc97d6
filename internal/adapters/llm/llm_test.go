package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limen-app/limen/internal/domain"
)

func TestCleanQuestion(t *testing.T) {
	assert.Equal(t, "What is here?", CleanQuestion(`  "What is here"  `))
	assert.Equal(t, "What keeps returning?", CleanQuestion("What keeps returning?"))
	assert.Equal(t, "", CleanQuestion("   "))
}

func TestCleanResponseCollapsesBlankLines(t *testing.T) {
	in := "One.\n\n\n\nTwo.  \n\nThree?\n"
	assert.Equal(t, "One.\n\nTwo.\n\nThree?", CleanResponse(in))
}

func TestBuildPromptCarriesMoodAndText(t *testing.T) {
	p := BuildPrompt(KindEmpathicResponse, domain.MoodOverwhelm, "so much at once")
	assert.Contains(t, p.System, "SAME LANGUAGE")
	assert.Contains(t, p.User, `"Storm"`)
	assert.Contains(t, p.User, "so much at once")

	q := BuildPrompt(KindGuidingQuestion, domain.MoodConfusion, "")
	assert.Contains(t, q.System, "12 words")
	assert.Contains(t, q.User, `"Fog"`)
}

func TestGatewayGenerator(t *testing.T) {
	var got gatewayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		if got.Type == KindGuidingQuestion {
			json.NewEncoder(w).Encode(map[string]string{"result": `"What is moving fastest"`})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"result": "Para one.\n\nPara two.\n\nPara three.\n\nWhat now?"})
	}))
	defer srv.Close()

	g := NewGatewayGenerator(srv.URL, "k", srv.Client())
	ctx := context.Background()

	q, err := g.GuidingQuestion(ctx, domain.MoodAnxiety)
	require.NoError(t, err)
	assert.Equal(t, "What is moving fastest?", q)
	assert.Equal(t, "anxiety", got.Mood)

	resp, err := g.EmpathicResponse(ctx, domain.MoodAnxiety, "too fast")
	require.NoError(t, err)
	assert.Len(t, strings.Split(resp, "\n\n"), 4)
	assert.Equal(t, KindEmpathicResponse, got.Type)
	assert.Equal(t, "too fast", got.Text)
}

func TestGatewayGeneratorErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": "slow down"})
	}))
	defer srv.Close()

	g := NewGatewayGenerator(srv.URL, "", srv.Client())

	_, err := g.EmpathicResponse(context.Background(), domain.MoodFree, "hi")
	assert.ErrorIs(t, err, ErrRateLimited)

	status = http.StatusInternalServerError
	_, err = g.GuidingQuestion(context.Background(), domain.MoodFree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
}

type countingGenerator struct{ calls int }

func (c *countingGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	c.calls++
	return "Q?", nil
}

func (c *countingGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	c.calls++
	return "R", nil
}

func TestRateLimitedFailsFast(t *testing.T) {
	inner := &countingGenerator{}
	g := NewRateLimited(inner, 2)
	ctx := context.Background()

	_, err := g.GuidingQuestion(ctx, domain.MoodFree)
	require.NoError(t, err)
	_, err = g.EmpathicResponse(ctx, domain.MoodFree, "x")
	require.NoError(t, err)
	_, err = g.EmpathicResponse(ctx, domain.MoodFree, "x")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 2, inner.calls)

	assert.Same(t, inner, NewRateLimited(inner, 0))
}

func TestMockGenerator(t *testing.T) {
	m := NewMockGenerator()
	q, err := m.GuidingQuestion(context.Background(), domain.MoodFree)
	require.NoError(t, err)
	assert.Equal(t, "What is present for you right now?", q)

	r, err := m.EmpathicResponse(context.Background(), domain.MoodFree, "a quiet morning")
	require.NoError(t, err)
	assert.Contains(t, r, "a quiet morning")
	assert.True(t, strings.HasSuffix(r, "?"))
}
