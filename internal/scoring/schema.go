package scoring

import "github.com/example/reframebot/internal/llm"

// AnalysisSchema defines the JSON schema for LLM response analysis.
var AnalysisSchema = &llm.Schema{
	Name:        "response-analysis",
	Description: "Evaluation of a learner's reframing attempt against a target language trick",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct": map[string]any{
				"type":        "boolean",
				"description": "Whether the response applies the target trick",
			},
			"score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "Quality of the reframing on a 0-100 scale",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two or three sentences of feedback addressed to the learner",
			},
			"improvements": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"maxItems":    3,
				"description": "Concrete suggestions for a stronger reframing",
			},
			"detected_trick": map[string]any{
				"type":        []any{"string", "null"},
				"description": "Name of the trick actually used, or null if none was recognized",
			},
		},
		"required":             []any{"is_correct", "score", "feedback"},
		"additionalProperties": false,
	},
}

// ClassificationSchema defines the JSON schema for trick classification.
var ClassificationSchema = &llm.Schema{
	Name:        "trick-classification",
	Description: "Identification of which language trick a response uses",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"detected_trick_id": map[string]any{
				"type":        []any{"integer", "null"},
				"description": "ID of the trick used in the response, or null",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "Confidence in the classification on a 0-100 scale",
			},
		},
		"required":             []any{"detected_trick_id", "confidence"},
		"additionalProperties": false,
	},
}
