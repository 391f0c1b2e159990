package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single recommendation call. A hung service
// degrades to the fallback plan instead of blocking the tick.
const DefaultTimeout = 15 * time.Second

// Client calls an OpenAI-compatible chat-completions endpoint for trading
// recommendations.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a recommendation client. Returns nil if apiKey is empty
// (advisory calls disabled; every Recommend degrades to an error).
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if apiKey == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http, model: model}
}

// Enabled reports whether the client is configured for live calls.
func (c *Client) Enabled() bool { return c != nil }

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the chat-completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Recommend requests a structured BUY/SELL/HOLD recommendation for the
// given market context.
func (c *Client) Recommend(ctx context.Context, rc Context) (Recommendation, error) {
	if !c.Enabled() {
		return Recommendation{}, fmt.Errorf("advisory client not configured")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(rc)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return Recommendation{}, fmt.Errorf("advisory call: %w", err)
	}
	if resp.IsError() {
		return Recommendation{}, fmt.Errorf("advisory API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return Recommendation{}, fmt.Errorf("empty advisory response")
	}

	rec, err := parseRecommendation(out.Choices[0].Message.Content)
	if err != nil {
		return Recommendation{}, err
	}

	slog.Debug("advisory recommendation",
		"action", rec.Action,
		"confidence", rec.Confidence,
	)
	return rec, nil
}

// buildPrompt renders the swing-trader prompt from the market context.
func buildPrompt(rc Context) string {
	var b strings.Builder
	b.WriteString("Context: You are a swing trader.\n")
	fmt.Fprintf(&b, "Market Data: Price is %.2f. Last change was %.4f.\n", rc.Price, rc.LastReturn)
	fmt.Fprintf(&b, "Recent memory summary:\n%s\n\n", rc.Memory)
	b.WriteString("Strategy:\n")
	b.WriteString("1. If Last change was POSITIVE (price went up), consider SELLING (Take Profit).\n")
	b.WriteString("2. If Last change was NEGATIVE (price went down), consider BUYING (Buy Dip).\n")
	b.WriteString("3. If change is tiny, HOLD.\n\n")
	b.WriteString(`Respond ONLY JSON: {"action": "BUY", "confidence": 0.9, "reasoning": "reason"}`)
	return b.String()
}

// parseRecommendation extracts and validates the JSON object embedded in a
// model response. Tolerates prose around the object.
func parseRecommendation(content string) (Recommendation, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return Recommendation{}, fmt.Errorf("no JSON object found in advisory response")
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(content[start:end+1]), &rec); err != nil {
		return Recommendation{}, fmt.Errorf("parse recommendation: %w", err)
	}
	if err := rec.validate(); err != nil {
		return Recommendation{}, err
	}
	return rec, nil
}
