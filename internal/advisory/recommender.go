// Package advisory is the boundary to the external recommendation service.
// It defines the narrow request/response contract the advisory agent
// depends on and an HTTP client speaking an OpenAI-compatible chat API.
// Failures never propagate past this boundary as anything but an error
// value; the advisory agent substitutes its deterministic fallback plan.
package advisory

import (
	"context"
	"fmt"
)

// Context is the market state handed to the recommendation service.
type Context struct {
	Price      float64
	LastReturn float64
	// Memory is the agent's recalled episode digest, included as prompt
	// context.
	Memory string
}

// Recommendation is a structured trading recommendation. Action is one of
// "BUY", "SELL", or "HOLD".
type Recommendation struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Recommender produces a recommendation for the given market context. Any
// returned error (timeout, transport failure, malformed response, missing
// credentials) signals the caller to fall back to a neutral plan.
type Recommender interface {
	Recommend(ctx context.Context, rc Context) (Recommendation, error)
}

// validate checks that a parsed recommendation is usable.
func (r Recommendation) validate() error {
	switch r.Action {
	case "BUY", "SELL", "HOLD":
	default:
		return fmt.Errorf("invalid recommendation action %q", r.Action)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("recommendation confidence %.3f out of [0,1]", r.Confidence)
	}
	return nil
}
