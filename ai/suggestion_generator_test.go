package ai

import (
	"context"
	"testing"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
)

func testWeaknesses() []models.PillarWeakness {
	return []models.PillarWeakness{
		{
			Pillar:     pillar.Market,
			Score:      35,
			Rationale:  "The addressable market looks too narrow for sustainable growth.",
			Weaknesses: []string{"No sizing evidence provided"},
		},
		{
			Pillar:     pillar.Pricing,
			Score:      50,
			Rationale:  "Willingness to pay is unproven at the proposed price point.",
			Weaknesses: []string{"No pricing experiments run"},
		},
	}
}

func newTestGenerator(responses ...string) (*SuggestionGenerator, *scriptedGenerator) {
	gen := &scriptedGenerator{responses: responses}
	return NewSuggestionGenerator(gen, &models.AIConfig{Temperature: 0.7, TimeoutMs: 1000}), gen
}

const validSuggestionsJSON = `[
	{"pillar": "market", "issue": "Narrow market", "rationale": "The market sizing is missing entirely.", "suggestion": "Run a bottom-up market sizing exercise."},
	{"pillar": "pricing", "issue": "Unproven pricing", "rationale": "Willingness to pay has not been tested.", "suggestion": "Interview ten prospects about pricing tiers."}
]`

func TestGenerateOneSuggestionPerWeakPillar(t *testing.T) {
	g, gen := newTestGenerator(validSuggestionsJSON)

	suggestions, err := g.Generate(context.Background(), models.IdeaInput{Title: "Test idea"}, testWeaknesses())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(suggestions))
	}
	if gen.calls != 1 {
		t.Errorf("Expected a single generation call, got %d", gen.calls)
	}
	if suggestions[0].Pillar != pillar.Market || suggestions[1].Pillar != pillar.Pricing {
		t.Errorf("Suggestions target wrong pillars: %s, %s", suggestions[0].Pillar, suggestions[1].Pillar)
	}
}

func TestGenerateRecomputesEstimatedImpact(t *testing.T) {
	g, _ := newTestGenerator(validSuggestionsJSON)

	suggestions, err := g.Generate(context.Background(), models.IdeaInput{Title: "Test idea"}, testWeaknesses())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// impact = max(1, 85 - round(score))
	if suggestions[0].EstimatedImpact != 50 {
		t.Errorf("Expected impact 50 for score 35, got %d", suggestions[0].EstimatedImpact)
	}
	if suggestions[1].EstimatedImpact != 35 {
		t.Errorf("Expected impact 35 for score 50, got %d", suggestions[1].EstimatedImpact)
	}
}

func TestGenerateEmptyWeaknesses(t *testing.T) {
	g, gen := newTestGenerator(validSuggestionsJSON)

	suggestions, err := g.Generate(context.Background(), models.IdeaInput{Title: "Test idea"}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected no suggestions, got %d", len(suggestions))
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation calls, got %d", gen.calls)
	}
}

func TestGenerateRetriesOnMalformedOutput(t *testing.T) {
	g, gen := newTestGenerator(
		"I cannot produce JSON right now.",
		`[{"pillar": "market", "issue": "x", "rationale": "y", "suggestion": "z"}]`,
		validSuggestionsJSON,
	)

	suggestions, err := g.Generate(context.Background(), models.IdeaInput{Title: "Test idea"}, testWeaknesses())
	if err != nil {
		t.Fatalf("Unexpected error after retries: %v", err)
	}
	if len(suggestions) != 2 {
		t.Errorf("Expected 2 suggestions, got %d", len(suggestions))
	}
	if gen.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", gen.calls)
	}
}

func TestGenerateExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	// Suggestion count never matches the two weak pillars.
	g, gen := newTestGenerator(`[{"pillar": "market", "issue": "x", "rationale": "market sizing", "suggestion": "do market research"}]`)

	_, err := g.Generate(context.Background(), models.IdeaInput{Title: "Test idea"}, testWeaknesses())
	if err == nil {
		t.Fatal("Expected an error after exhausting attempts")
	}
	if errors.GetCode(err) != errors.CodeSchemaValidation {
		t.Errorf("Expected SCHEMA_VALIDATION_ERROR, got %s", errors.GetCode(err))
	}
	if gen.calls != maxSuggestionAttempts {
		t.Errorf("Expected %d attempts, got %d", maxSuggestionAttempts, gen.calls)
	}
}

func TestValidateSuggestionsRejectsDuplicatePillars(t *testing.T) {
	payload := []suggestionPayload{
		{Pillar: "market", Issue: "a", Rationale: "the market is narrow", Suggestion: "size the market"},
		{Pillar: "market_demand", Issue: "b", Rationale: "the market is narrow", Suggestion: "size the market"},
	}

	_, err := validateSuggestions(payload, testWeaknesses())
	if err == nil {
		t.Fatal("Expected duplicate pillar rejection")
	}
}

func TestValidateSuggestionsRejectsStrongPillarTarget(t *testing.T) {
	payload := []suggestionPayload{
		{Pillar: "market", Issue: "a", Rationale: "the market is narrow", Suggestion: "size the market"},
		{Pillar: "problem", Issue: "b", Rationale: "problem unclear", Suggestion: "clarify the problem"},
	}

	_, err := validateSuggestions(payload, testWeaknesses())
	if err == nil {
		t.Fatal("Expected rejection of a suggestion targeting a non-weak pillar")
	}
}

func TestValidateSuggestionsRejectsUngroundedContent(t *testing.T) {
	payload := []suggestionPayload{
		{Pillar: "market", Issue: "a", Rationale: "add dark mode", Suggestion: "ship a mobile app"},
		{Pillar: "pricing", Issue: "b", Rationale: "willingness to pay untested", Suggestion: "run pricing interviews"},
	}

	_, err := validateSuggestions(payload, testWeaknesses())
	if err == nil {
		t.Fatal("Expected rejection of ungrounded suggestion content")
	}
	if errors.GetCode(err) != errors.CodeSchemaValidation {
		t.Errorf("Expected SCHEMA_VALIDATION_ERROR, got %s", errors.GetCode(err))
	}
}

func TestIsGroundedVacuousWhenNoKeywords(t *testing.T) {
	weakness := models.PillarWeakness{Pillar: pillar.GoToMarket, Rationale: "ok"}
	if !isGrounded("anything at all", weakness) {
		t.Error("Expected grounding to pass vacuously when diagnostics carry no substantial keywords")
	}
}
