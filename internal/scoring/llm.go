package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/llm"
	"github.com/example/reframebot/internal/store"
)

const analysisSystemPrompt = `You are a coach teaching conversational reframing techniques.
The learner was shown a limiting statement and asked to reframe it using one specific
language trick. Evaluate how well the response applies that trick.

Grade the response on a 0-100 scale:
- 80-100: clean, persuasive application of the target trick
- 50-79: the trick is recognizable but the execution is rough
- 30-49: a reframing attempt, but closer to a different trick or too vague
- 0-29: no recognizable reframing

Write feedback addressed directly to the learner, specific to their wording.
Respond only with JSON matching the provided schema.`

const classificationSystemPrompt = `You identify which conversational reframing trick a
response uses, given the list of tricks. If none applies, return null.
Respond only with JSON matching the provided schema.`

// exampleCount is how many catalog examples accompany the analysis prompt.
const exampleCount = 3

// LLMAnalyzer grades responses with a language model.
type LLMAnalyzer struct {
	provider llm.Provider
	cat      *catalog.Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLLMAnalyzer creates an analyzer backed by the given provider.
func NewLLMAnalyzer(provider llm.Provider, cat *catalog.Catalog, rng *rand.Rand) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, cat: cat, rng: rng}
}

type analysisPayload struct {
	IsCorrect     bool     `json:"is_correct"`
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	Improvements  []string `json:"improvements"`
	DetectedTrick *string  `json:"detected_trick"`
}

// Analyze implements Analyzer. It returns an error when the provider
// fails or responds with malformed JSON; the caller decides whether to
// fall back.
func (a *LLMAnalyzer) Analyze(ctx context.Context, response string, trick *store.Trick, statement string) (*ResponseAnalysis, error) {
	a.mu.Lock()
	examples, err := a.cat.RandomExamples(ctx, trick.ID, exampleCount, a.rng)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Statement to reframe: %q\n\n", statement)
	fmt.Fprintf(&sb, "Target trick: %s\n%s\n\n", trick.Name, trick.Definition)
	if len(examples) > 0 {
		sb.WriteString("Example applications of this trick:\n")
		for _, ex := range examples {
			fmt.Fprintf(&sb, "- %s\n", ex)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Learner response: %q", response)

	ctx = llm.WithPurpose(ctx, "response-analysis")
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      analysisSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		Schema:      AnalysisSchema,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze response: %w", err)
	}

	var payload analysisPayload
	if err := json.Unmarshal(resp.Content, &payload); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	if payload.Score < 0 || payload.Score > 100 {
		return nil, fmt.Errorf("analysis score %v out of range", payload.Score)
	}

	out := &ResponseAnalysis{
		IsCorrect:    payload.IsCorrect,
		Score:        payload.Score,
		Feedback:     payload.Feedback,
		Improvements: payload.Improvements,
		Confidence:   payload.Score / 100,
	}
	if payload.DetectedTrick != nil {
		out.DetectedTrick = *payload.DetectedTrick
	}
	return out, nil
}

type classificationPayload struct {
	DetectedTrickID *int    `json:"detected_trick_id"`
	Confidence      float64 `json:"confidence"`
}

// classifyConfidenceFloor is the minimum confidence for ClassifyTrick to
// report a match.
const classifyConfidenceFloor = 50.0

// ClassifyTrick asks the model which trick a free-form response uses.
// Returns 0 when no trick is identified with enough confidence.
func (a *LLMAnalyzer) ClassifyTrick(ctx context.Context, response string) (int, error) {
	all, err := a.cat.All(ctx)
	if err != nil {
		return 0, err
	}

	var sb strings.Builder
	sb.WriteString("Available tricks:\n")
	for _, t := range all {
		fmt.Fprintf(&sb, "%d. %s - %s\n", t.ID, t.Name, t.Definition)
	}
	fmt.Fprintf(&sb, "\nResponse to classify: %q", response)

	ctx = llm.WithPurpose(ctx, "trick-classification")
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:    classificationSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		Schema:    ClassificationSchema,
		MaxTokens: 256,
	})
	if err != nil {
		return 0, fmt.Errorf("classify trick: %w", err)
	}

	var payload classificationPayload
	if err := json.Unmarshal(resp.Content, &payload); err != nil {
		return 0, fmt.Errorf("parse classification: %w", err)
	}
	if payload.DetectedTrickID == nil || payload.Confidence < classifyConfidenceFloor {
		return 0, nil
	}
	return *payload.DetectedTrickID, nil
}
