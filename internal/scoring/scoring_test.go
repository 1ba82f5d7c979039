package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/llm"
	"github.com/example/reframebot/internal/store"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := catalog.Seed(context.Background(), s.Tricks(), s.Statements()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return catalog.New(s.Tricks())
}

func trickByID(t *testing.T, cat *catalog.Catalog, id int) *store.Trick {
	t.Helper()
	tr, err := cat.ByID(context.Background(), id)
	if err != nil {
		t.Fatalf("ByID(%d): %v", id, err)
	}
	return tr
}

func TestKeywordAnalyzerScoresTargetTrick(t *testing.T) {
	cat := testCatalog(t)
	k := NewKeywordAnalyzer(cat)
	ctx := context.Background()
	target := trickByID(t, cat, 1)

	res, err := k.Analyze(ctx, "Your intention is the purpose behind this fear", target, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.IsCorrect {
		t.Errorf("IsCorrect = false, score %.1f", res.Score)
	}
	if res.Score < correctThreshold {
		t.Errorf("Score = %.1f, want >= %v", res.Score, correctThreshold)
	}
	if !res.Fallback {
		t.Error("Fallback not set")
	}
	if res.DetectedTrick != target.Name {
		t.Errorf("DetectedTrick = %q, want %q", res.DetectedTrick, target.Name)
	}
	if res.Confidence != res.Score/100 {
		t.Errorf("Confidence = %v, want Score/100", res.Confidence)
	}
}

func TestKeywordAnalyzerDetectsCrossTrick(t *testing.T) {
	cat := testCatalog(t)
	k := NewKeywordAnalyzer(cat)
	ctx := context.Background()
	target := trickByID(t, cat, 1)

	// Phrased as Reality Strategy, not Intent.
	cl, err := k.Classify(ctx, "How do you know? What evidence tells you that?", target)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cl.Matched != 0 {
		t.Errorf("target matches = %d, want 0", cl.Matched)
	}
	if cl.DetectedTrickID != 8 {
		t.Errorf("DetectedTrickID = %d, want 8 (Reality Strategy)", cl.DetectedTrickID)
	}
	if !strings.Contains(cl.Explanation, "Reality Strategy") {
		t.Errorf("Explanation = %q, want mention of the detected trick", cl.Explanation)
	}
}

func TestKeywordAnalyzerRejectsEmptyResponse(t *testing.T) {
	cat := testCatalog(t)
	k := NewKeywordAnalyzer(cat)
	target := trickByID(t, cat, 3)

	res, err := k.Analyze(context.Background(), "ok", target, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.IsCorrect || res.Score != 0 {
		t.Errorf("got correct=%v score=%.1f for a junk response", res.IsCorrect, res.Score)
	}
	if !strings.Contains(res.Feedback, target.Name) {
		t.Errorf("feedback %q does not hint at the target trick", res.Feedback)
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestLLMAnalyzerParsesPayload(t *testing.T) {
	cat := testCatalog(t)
	mock := llm.NewMockProvider(llm.MockResponse{Content: mustJSON(t, map[string]any{
		"is_correct":     true,
		"score":          85,
		"feedback":       "Strong reframing.",
		"improvements":   []string{"Tighten the wording"},
		"detected_trick": "Intent",
	})})
	a := NewLLMAnalyzer(mock, cat, rand.New(rand.NewSource(1)))
	target := trickByID(t, cat, 1)

	res, err := a.Analyze(context.Background(), "What you really want is safety", target, "I am too old")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.IsCorrect || res.Score != 85 || res.DetectedTrick != "Intent" {
		t.Errorf("analysis = %+v", res)
	}
	if res.Fallback {
		t.Error("Fallback set on a primary result")
	}

	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.Schema != AnalysisSchema {
		t.Error("request did not carry the analysis schema")
	}
	if !strings.Contains(req.Messages[0].Content, "I am too old") {
		t.Error("prompt missing the statement")
	}
	if !strings.Contains(req.Messages[0].Content, target.Definition) {
		t.Error("prompt missing the trick definition")
	}
}

func TestLLMAnalyzerRejectsBadPayloads(t *testing.T) {
	cat := testCatalog(t)
	target := trickByID(t, cat, 1)

	for name, content := range map[string]json.RawMessage{
		"malformed":    json.RawMessage(`{"score": `),
		"out of range": mustJSON(t, map[string]any{"is_correct": true, "score": 150, "feedback": "x"}),
	} {
		t.Run(name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: content})
			a := NewLLMAnalyzer(mock, cat, rand.New(rand.NewSource(1)))
			if _, err := a.Analyze(context.Background(), "r", target, "s"); err == nil {
				t.Error("Analyze succeeded, want error")
			}
		})
	}
}

func TestClassifyTrick(t *testing.T) {
	cat := testCatalog(t)

	cases := []struct {
		name    string
		payload map[string]any
		want    int
	}{
		{"confident match", map[string]any{"detected_trick_id": 6, "confidence": 80}, 6},
		{"low confidence", map[string]any{"detected_trick_id": 6, "confidence": 40}, 0},
		{"no match", map[string]any{"detected_trick_id": nil, "confidence": 90}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: mustJSON(t, tc.payload)})
			a := NewLLMAnalyzer(mock, cat, rand.New(rand.NewSource(1)))
			got, err := a.ClassifyTrick(context.Background(), "it's like a muscle")
			if err != nil {
				t.Fatalf("ClassifyTrick: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOracleFallsBackOnProviderError(t *testing.T) {
	cat := testCatalog(t)
	target := trickByID(t, cat, 1)

	failing := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
	primary := NewLLMAnalyzer(failing, cat, rand.New(rand.NewSource(1)))
	oracle := NewOracle(primary, NewKeywordAnalyzer(cat), time.Second, zap.NewNop())

	res, err := oracle.Analyze(context.Background(), "the purpose behind this is safety", target, "stmt")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Fallback {
		t.Error("expected the keyword fallback result")
	}
	if !res.IsCorrect {
		t.Errorf("fallback scored %.1f, want correct", res.Score)
	}
}

func TestOraclePrefersPrimary(t *testing.T) {
	cat := testCatalog(t)
	target := trickByID(t, cat, 1)

	mock := llm.NewMockProvider(llm.MockResponse{Content: mustJSON(t, map[string]any{
		"is_correct": false, "score": 20, "feedback": "Not a reframing.",
	})})
	primary := NewLLMAnalyzer(mock, cat, rand.New(rand.NewSource(1)))
	oracle := NewOracle(primary, NewKeywordAnalyzer(cat), time.Second, zap.NewNop())

	res, err := oracle.Analyze(context.Background(), "whatever", target, "stmt")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Fallback {
		t.Error("fell back although the primary succeeded")
	}
	if res.Score != 20 {
		t.Errorf("Score = %.1f, want 20", res.Score)
	}
}

func TestOracleRespectsCallerCancellation(t *testing.T) {
	cat := testCatalog(t)
	target := trickByID(t, cat, 1)

	failing := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
	primary := NewLLMAnalyzer(failing, cat, rand.New(rand.NewSource(1)))
	oracle := NewOracle(primary, NewKeywordAnalyzer(cat), time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := oracle.Analyze(ctx, "r", target, "s"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEncouragementBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{85, "Excellent"},
		{70, "Excellent"},
		{55, "Good attempt"},
		{40, "Good attempt"},
		{10, "Don't worry"},
	}
	for _, tc := range cases {
		got := Encouragement(tc.score, "Intent")
		if !strings.Contains(got, tc.want) {
			t.Errorf("Encouragement(%.0f) = %q, want substring %q", tc.score, got, tc.want)
		}
	}
}

func TestEncouragingMessageFirstAttempt(t *testing.T) {
	if got := EncouragingMessage(90, 1, "Intent"); !strings.Contains(got, "start") {
		t.Errorf("first attempt high = %q", got)
	}
	if got := EncouragingMessage(10, 1, "Intent"); !strings.Contains(got, "First try") {
		t.Errorf("first attempt low = %q", got)
	}
	if got := EncouragingMessage(65, 3, "Intent"); !strings.Contains(got, "Nice work") {
		t.Errorf("later attempt = %q", got)
	}
}

func TestNextStepsBands(t *testing.T) {
	if got := NextSteps(85); got == "" {
		t.Error("high score got empty next steps")
	}
	if got := NextSteps(60); got != "" {
		t.Errorf("mid score next steps = %q, want empty", got)
	}
	if got := NextSteps(30); !strings.Contains(got, "try again") {
		t.Errorf("low score next steps = %q", got)
	}
}

func TestSuggestImprovements(t *testing.T) {
	cat := testCatalog(t)
	target := trickByID(t, cat, 2)

	got := SuggestImprovements("no", target)
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("len = %d", len(got))
	}
	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "full sentence") {
		t.Errorf("short response not flagged: %v", got)
	}
	if !strings.Contains(joined, target.Keywords[0]) {
		t.Errorf("missing keyword hint: %v", got)
	}
}

func TestFeedbackEngineGenerate(t *testing.T) {
	cat := testCatalog(t)
	f := NewFeedbackEngine(cat, rand.New(rand.NewSource(3)))
	target := trickByID(t, cat, 1)

	fb, err := f.Generate(context.Background(), &ResponseAnalysis{Score: 90, IsCorrect: true}, target)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(fb.Examples) == 0 {
		t.Error("no examples attached")
	}
	if len(fb.Tips) != 3 {
		t.Errorf("tips = %d, want specific + 2 general", len(fb.Tips))
	}
	if fb.NextSteps == "" {
		t.Error("high score should recommend moving on")
	}
}
