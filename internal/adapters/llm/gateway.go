package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/limen-app/limen/internal/domain"
)

// ErrRateLimited is returned when the gateway answers 429 or 402.
var ErrRateLimited = errors.New("generation gateway rate limited")

// GatewayGenerator calls a remote generation function over HTTP.
// Request: {"type", "mood", "text"}; response: {"result"} or {"error"}.
type GatewayGenerator struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGatewayGenerator(url, apiKey string, client *http.Client) *GatewayGenerator {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GatewayGenerator{url: url, apiKey: apiKey, client: client}
}

type gatewayRequest struct {
	Type Kind   `json:"type"`
	Mood string `json:"mood"`
	Text string `json:"text,omitempty"`
}

type gatewayResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

func (g *GatewayGenerator) GuidingQuestion(ctx context.Context, mood domain.Mood) (string, error) {
	out, err := g.call(ctx, gatewayRequest{Type: KindGuidingQuestion, Mood: string(mood)})
	if err != nil {
		return "", err
	}
	return CleanQuestion(out), nil
}

func (g *GatewayGenerator) EmpathicResponse(ctx context.Context, mood domain.Mood, text string) (string, error) {
	out, err := g.call(ctx, gatewayRequest{Type: KindEmpathicResponse, Mood: string(mood), Text: text})
	if err != nil {
		return "", err
	}
	return CleanResponse(out), nil
}

func (g *GatewayGenerator) call(ctx context.Context, in gatewayRequest) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading gateway response: %w", err)
	}

	var out gatewayResponse
	_ = json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusPaymentRequired:
		return "", fmt.Errorf("%w: %s", ErrRateLimited, out.Error)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("gateway status %d: %s", resp.StatusCode, out.Error)
	case out.Error != "":
		return "", fmt.Errorf("gateway error: %s", out.Error)
	case out.Result == "":
		return "", fmt.Errorf("gateway returned empty result")
	}
	return out.Result, nil
}
