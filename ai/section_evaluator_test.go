package ai

import (
	"context"
	"testing"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
)

func newTestEvaluator(responses ...string) (*SectionEvaluator, *scriptedGenerator) {
	gen := &scriptedGenerator{responses: responses}
	return NewSectionEvaluator(gen, &models.AIConfig{Temperature: 0.7, TimeoutMs: 1000}), gen
}

func TestEvaluateValidResponse(t *testing.T) {
	evaluator, _ := newTestEvaluator(`{"score": 72.4, "summary": "Clear pain point with paying users", "actions": ["  Interview couriers  ", "", "Survey restaurants"]}`)

	result, err := evaluator.Evaluate(context.Background(), pillar.Problem, models.IdeaInput{Title: "Delivery robots"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Section != pillar.Problem {
		t.Errorf("Expected section problem, got %s", result.Section)
	}
	if result.Score != 72.4 {
		t.Errorf("Expected score 72.4, got %v", result.Score)
	}
	// Actions arrive trimmed, empties dropped, unchecked.
	if len(result.Actions) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(result.Actions))
	}
	if result.Actions[0].Text != "Interview couriers" {
		t.Errorf("Expected trimmed action text, got %q", result.Actions[0].Text)
	}
	if result.Actions[0].Completed || result.Actions[1].Completed {
		t.Error("Fresh actions must arrive unchecked")
	}
}

func TestEvaluateClampsScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected float64
	}{
		{"above range", `{"score": 140, "summary": "great"}`, 100},
		{"below range", `{"score": -5, "summary": "weak"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator, _ := newTestEvaluator(tt.response)
			result, err := evaluator.Evaluate(context.Background(), pillar.Market, models.IdeaInput{Title: "Delivery robots"})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result.Score != tt.expected {
				t.Errorf("Expected clamped score %v, got %v", tt.expected, result.Score)
			}
		})
	}
}

func TestEvaluateProseResponse(t *testing.T) {
	evaluator, _ := newTestEvaluator("This idea seems promising but needs more market research.")

	_, err := evaluator.Evaluate(context.Background(), pillar.Market, models.IdeaInput{Title: "Delivery robots"})
	if err == nil {
		t.Fatal("Expected an error for prose output")
	}
	if errors.GetCode(err) != errors.CodeAIResponse {
		t.Errorf("Expected AI_RESPONSE_ERROR, got %s", errors.GetCode(err))
	}
}

func TestEvaluateEmptyIdea(t *testing.T) {
	evaluator, gen := newTestEvaluator(`{"score": 50, "summary": "ok"}`)

	_, err := evaluator.Evaluate(context.Background(), pillar.Problem, models.IdeaInput{Title: "  ", Summary: ""})
	if err == nil {
		t.Fatal("Expected an error for an empty idea")
	}
	if errors.GetCode(err) != errors.CodeMissingInput {
		t.Errorf("Expected MISSING_INPUT, got %s", errors.GetCode(err))
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation call for an empty idea, got %d", gen.calls)
	}
}

func TestEvaluateMissingSummary(t *testing.T) {
	evaluator, _ := newTestEvaluator(`{"score": 50, "summary": "   ", "actions": ["do something"]}`)

	_, err := evaluator.Evaluate(context.Background(), pillar.Pricing, models.IdeaInput{Title: "Delivery robots"})
	if err == nil {
		t.Fatal("Expected an error for a payload without a summary")
	}
	if errors.GetCode(err) != errors.CodeSchemaValidation {
		t.Errorf("Expected SCHEMA_VALIDATION_ERROR, got %s", errors.GetCode(err))
	}
}

func TestEvaluateUnknownSection(t *testing.T) {
	evaluator, gen := newTestEvaluator(`{"score": 50, "summary": "ok"}`)

	_, err := evaluator.Evaluate(context.Background(), pillar.ID("virality"), models.IdeaInput{Title: "Delivery robots"})
	if err == nil {
		t.Fatal("Expected an error for an unknown section")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("Expected INVALID_INPUT, got %s", errors.GetCode(err))
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation call for an unknown section, got %d", gen.calls)
	}
}
