package llm

import "testing"

func TestGeminiModelAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"}, // pass-through
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGeminiSchemaConversion(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feedback": map[string]any{"type": "string"},
			"score":    map[string]any{"type": "integer"},
			"verdict":  map[string]any{"type": "string", "enum": []any{"correct", "partial", "incorrect"}},
			"improvements": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"feedback", "score"},
	}

	schema := geminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("type = %s, want OBJECT", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("properties = %d, want 4", len(schema.Properties))
	}
	if schema.Properties["feedback"].Type != "STRING" {
		t.Errorf("feedback type = %s", schema.Properties["feedback"].Type)
	}
	if schema.Properties["score"].Type != "INTEGER" {
		t.Errorf("score type = %s", schema.Properties["score"].Type)
	}
	if len(schema.Properties["verdict"].Enum) != 3 {
		t.Errorf("verdict enum = %d values", len(schema.Properties["verdict"].Enum))
	}
	if schema.Properties["improvements"].Type != "ARRAY" ||
		schema.Properties["improvements"].Items.Type != "STRING" {
		t.Errorf("improvements = %+v", schema.Properties["improvements"])
	}
	if len(schema.Required) != 2 {
		t.Errorf("required = %d fields", len(schema.Required))
	}
}
