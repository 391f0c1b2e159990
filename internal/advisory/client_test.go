package advisory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	c := NewClient("https://example.com", "", "test-model", 0)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Recommendation
		wantErr bool
	}{
		{
			name:    "bare json",
			content: `{"action": "BUY", "confidence": 0.9, "reasoning": "dip"}`,
			want:    Recommendation{Action: "BUY", Confidence: 0.9, Reasoning: "dip"},
		},
		{
			name:    "json wrapped in prose",
			content: "Sure, here is my take:\n{\"action\": \"HOLD\", \"confidence\": 0.4, \"reasoning\": \"tiny change\"}\nGood luck!",
			want:    Recommendation{Action: "HOLD", Confidence: 0.4, Reasoning: "tiny change"},
		},
		{
			name:    "no json object",
			content: "I think you should buy.",
			wantErr: true,
		},
		{
			name:    "invalid action",
			content: `{"action": "SHORT", "confidence": 0.5, "reasoning": "x"}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			content: `{"action": "SELL", "confidence": 1.5, "reasoning": "x"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			content: `{"action": "BUY", "confidence":`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecommendation(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPromptIncludesMarketContext(t *testing.T) {
	prompt := buildPrompt(Context{Price: 123.45, LastReturn: -0.0123, Memory: "t=3 act=BUY"})

	assert.Contains(t, prompt, "Price is 123.45")
	assert.Contains(t, prompt, "-0.0123")
	assert.Contains(t, prompt, "t=3 act=BUY")
	assert.Contains(t, prompt, "swing trader")
	assert.Contains(t, prompt, `Respond ONLY JSON`)
}

func TestClientRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"action\":\"BUY\",\"confidence\":0.8,\"reasoning\":\"buy the dip\"}"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", time.Second)
	require.True(t, c.Enabled())

	rec, err := c.Recommend(context.Background(), Context{Price: 99.5, LastReturn: -0.02, Memory: "No prior decisions."})
	require.NoError(t, err)
	assert.Equal(t, "BUY", rec.Action)
	assert.Equal(t, 0.8, rec.Confidence)
	assert.Equal(t, "buy the dip", rec.Reasoning)
}

func TestClientRecommendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", time.Second)
	_, err := c.Recommend(context.Background(), Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClientRecommendEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", time.Second)
	_, err := c.Recommend(context.Background(), Context{})
	assert.Error(t, err)
}
