// Package scoring evaluates a learner's reframing attempt against the
// target trick. The primary analyzer asks an LLM for structured analysis;
// a keyword classifier serves as the deterministic fallback so attempts
// are always scored.
package scoring

import (
	"context"

	"github.com/example/reframebot/internal/store"
)

// ResponseAnalysis is the scored evaluation of one attempt.
type ResponseAnalysis struct {
	// IsCorrect reports whether the attempt applied the target trick.
	IsCorrect bool

	// Score is the quality grade on a 0–100 scale.
	Score float64

	// Feedback is a short prose explanation for the learner.
	Feedback string

	// Improvements are concrete suggestions, at most three.
	Improvements []string

	// DetectedTrick names the trick the analyzer believes was used,
	// empty when nothing was recognized.
	DetectedTrick string

	// Confidence is Score normalized to 0–1.
	Confidence float64

	// Fallback marks results produced by the keyword classifier
	// rather than the LLM.
	Fallback bool
}

// Analyzer grades a learner response against a target trick.
type Analyzer interface {
	Analyze(ctx context.Context, response string, trick *store.Trick, statement string) (*ResponseAnalysis, error)
}
