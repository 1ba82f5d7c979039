package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/store"
)

const (
	// correctThreshold is the keyword confidence at or above which an
	// attempt counts as correct.
	correctThreshold = 30.0

	// detectThreshold is the confidence a trick must exceed to be
	// reported as detected at all.
	detectThreshold = 20.0
)

// Classification is the result of keyword-based trick matching.
type Classification struct {
	// DetectedTrickID is the best-matching trick, 0 when no trick
	// cleared the detection threshold.
	DetectedTrickID int

	// Confidence is the best match's keyword-coverage percentage.
	Confidence float64

	// Matched and Total count keyword hits against the target trick.
	Matched int
	Total   int

	Explanation string
}

// KeywordAnalyzer grades responses by keyword coverage. It needs no
// network and is fully deterministic, which makes it the fallback when
// the LLM is unreachable and the baseline for tests.
type KeywordAnalyzer struct {
	cat *catalog.Catalog
}

func NewKeywordAnalyzer(cat *catalog.Catalog) *KeywordAnalyzer {
	return &KeywordAnalyzer{cat: cat}
}

// Classify matches the response against the target trick's keywords, then
// against every other trick's. The best coverage wins, so a response that
// clearly uses a different trick is reported as that trick.
func (k *KeywordAnalyzer) Classify(ctx context.Context, response string, target *store.Trick) (*Classification, error) {
	lower := strings.ToLower(response)

	matched := countMatches(lower, target.Keywords)
	confidence := coverage(matched, len(target.Keywords))

	bestID := target.ID
	best := confidence

	all, err := k.cat.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.ID == target.ID {
			continue
		}
		c := coverage(countMatches(lower, t.Keywords), len(t.Keywords))
		if c > best {
			bestID = t.ID
			best = c
		}
	}

	cl := &Classification{
		Confidence:  best,
		Matched:     matched,
		Total:       len(target.Keywords),
		Explanation: fmt.Sprintf("Matched %d of %d keywords.", matched, len(target.Keywords)),
	}
	if best > detectThreshold {
		cl.DetectedTrickID = bestID
	}
	if cl.DetectedTrickID != 0 && cl.DetectedTrickID != target.ID {
		if other, err := k.cat.ByID(ctx, cl.DetectedTrickID); err == nil {
			cl.Explanation += fmt.Sprintf(" The response looks closer to %q.", other.Name)
		}
	}
	return cl, nil
}

// Analyze implements Analyzer using keyword classification only.
func (k *KeywordAnalyzer) Analyze(ctx context.Context, response string, trick *store.Trick, _ string) (*ResponseAnalysis, error) {
	cl, err := k.Classify(ctx, response, trick)
	if err != nil {
		return nil, err
	}

	correct := cl.Confidence >= correctThreshold
	feedback := "Scored by the baseline keyword check. " + cl.Explanation
	if !correct {
		feedback += fmt.Sprintf(" Try working in keywords of %q such as: %s.",
			trick.Name, strings.Join(firstN(trick.Keywords, 3), ", "))
	}

	detected := ""
	if correct {
		detected = trick.Name
	}

	return &ResponseAnalysis{
		IsCorrect: correct,
		Score:     cl.Confidence,
		Feedback:  feedback,
		Improvements: []string{
			"Use more of this trick's characteristic phrasing",
			"Study the example reframings before retrying",
		},
		DetectedTrick: detected,
		Confidence:    cl.Confidence / 100,
		Fallback:      true,
	}, nil
}

func countMatches(lowerResponse string, keywords store.StringList) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lowerResponse, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

func coverage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total) * 100
}

func firstN(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
