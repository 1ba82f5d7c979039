package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/store"
)

// Feedback is the full learner-facing package built around an analysis.
type Feedback struct {
	Analysis      *ResponseAnalysis
	Encouragement string
	Examples      []string
	Tips          []string
	NextSteps     string
}

// FeedbackEngine turns analyses into learner-facing feedback.
type FeedbackEngine struct {
	cat *catalog.Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFeedbackEngine(cat *catalog.Catalog, rng *rand.Rand) *FeedbackEngine {
	return &FeedbackEngine{cat: cat, rng: rng}
}

// Generate assembles encouragement, fresh examples, tips and next steps
// for the given analysis.
func (f *FeedbackEngine) Generate(ctx context.Context, analysis *ResponseAnalysis, trick *store.Trick) (*Feedback, error) {
	f.mu.Lock()
	examples, err := f.cat.RandomExamples(ctx, trick.ID, 2, f.rng)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &Feedback{
		Analysis:      analysis,
		Encouragement: Encouragement(analysis.Score, trick.Name),
		Examples:      examples,
		Tips:          Tips(trick.ID),
		NextSteps:     NextSteps(analysis.Score),
	}, nil
}

// Encouragement returns the score-banded encouragement line.
func Encouragement(score float64, trickName string) string {
	switch {
	case score >= 70:
		return fmt.Sprintf("Excellent! You applied %q correctly.", trickName)
	case score >= 40:
		return "Good attempt! You are on the right track."
	default:
		return "Don't worry! Mastering language tricks takes practice."
	}
}

// EncouragingMessage varies the message by attempt count as well as
// score, so a weak first try still lands positively.
func EncouragingMessage(score float64, attempt int, trickName string) string {
	if attempt == 1 {
		if score >= 70 {
			return fmt.Sprintf("A great start with %q!", trickName)
		}
		return fmt.Sprintf("First try at %q, keep practicing!", trickName)
	}
	switch {
	case score >= 80:
		return fmt.Sprintf("Outstanding! You have real command of %q!", trickName)
	case score >= 60:
		return fmt.Sprintf("Nice work! Your %q keeps getting better!", trickName)
	case score >= 40:
		return fmt.Sprintf("You're making progress! Keep studying %q!", trickName)
	default:
		return fmt.Sprintf("Don't give up! Every attempt brings you closer to mastering %q!", trickName)
	}
}

// NextSteps recommends what to do after an attempt. Mid-range scores get
// no recommendation: the learner should simply keep going.
func NextSteps(score float64) string {
	switch {
	case score >= 80:
		return "Excellent! Move on to the next trick or practice with harder statements."
	case score >= 50:
		return ""
	default:
		return "Review the definition and examples, then try again."
	}
}

var generalTips = []string{
	"Reframe the statement, don't argue with it",
	"Keep the response short enough to say out loud in conversation",
}

var trickTips = map[int]string{
	1:  "Focus on what the speaker actually wants or intends",
	2:  "Swap the loaded word for a synonym with a different shade",
	3:  "Point at what holding the belief leads to",
	4:  "Break the general claim into specific pieces",
	5:  "Lift the claim into a broader category where it breaks",
	6:  "Reach for a vivid comparison or metaphor",
	7:  "Show a worldview in which the belief doesn't hold",
	8:  "Ask how the speaker knows the belief is true",
	9:  "Name a value that matters more in this situation",
	10: "Stretch or shrink the time frame or the context",
	11: "Shift the conversation to a different outcome entirely",
	12: "Find one exception that breaks the rule",
	13: "Step back and evaluate the belief itself",
	14: "Turn the belief's own criterion back on itself",
}

// Tips returns the trick-specific tip followed by up to two general ones.
func Tips(trickID int) []string {
	specific, ok := trickTips[trickID]
	if !ok {
		specific = fmt.Sprintf("Study the example applications of trick #%d", trickID)
	}
	return append([]string{specific}, generalTips...)
}

// SuggestImprovements produces quick heuristic suggestions without
// calling the model. At most three are returned.
func SuggestImprovements(response string, trick *store.Trick) []string {
	var out []string
	lower := strings.ToLower(response)

	if len(response) < 10 {
		out = append(out, "Expand the response into a full sentence")
	}
	if countMatches(lower, trick.Keywords) == 0 {
		out = append(out, fmt.Sprintf("Work in this trick's keywords: %s",
			strings.Join(firstN(trick.Keywords, 3), ", ")))
	}
	if tip, ok := trickTips[trick.ID]; ok {
		out = append(out, tip)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
