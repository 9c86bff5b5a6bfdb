package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// maxSuggestionAttempts bounds the regeneration loop for malformed or
// ungrounded suggestion sets.
const maxSuggestionAttempts = 3

// minKeywordLength is the shortest rationale token that counts for the
// grounding check.
const minKeywordLength = 5

type suggestionPayload struct {
	Pillar     string `json:"pillar"`
	Issue      string `json:"issue"`
	Rationale  string `json:"rationale"`
	Suggestion string `json:"suggestion"`
}

// SuggestionGenerator drives the collaborator to produce one remediation
// suggestion per weak pillar, validating structure, count, and content
// grounding, regenerating on failure.
type SuggestionGenerator struct {
	client *StructuredClient[[]suggestionPayload]
}

// NewSuggestionGenerator creates a generator over the generation port.
func NewSuggestionGenerator(generator ports.TextGenerator, config *models.AIConfig) *SuggestionGenerator {
	systemContext := "You are a startup advisor. Propose one concrete remediation per weak pillar and respond with valid JSON only."
	return &SuggestionGenerator{
		client: NewStructuredClient[[]suggestionPayload](generator, config, systemContext),
	}
}

// Generate produces exactly one Suggestion per weak pillar. Up to
// maxSuggestionAttempts fresh generation calls are made; if every attempt
// fails validation the last error is returned. There is no partial success.
func (g *SuggestionGenerator) Generate(ctx context.Context, idea models.IdeaInput, weaknesses []models.PillarWeakness) ([]models.Suggestion, error) {
	if len(weaknesses) == 0 {
		return []models.Suggestion{}, nil
	}

	weaknessJSON, err := json.Marshal(weaknesses)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode weak pillars")
	}
	prompt := renderPrompt(suggestionPromptTemplate, map[string]string{
		"title":      idea.Title,
		"summary":    idea.Summary,
		"weaknesses": string(weaknessJSON),
	})

	var lastErr error
	for attempt := 1; attempt <= maxSuggestionAttempts; attempt++ {
		payload, err := g.client.GetJSONResponse(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		suggestions, err := validateSuggestions(*payload, weaknesses)
		if err != nil {
			lastErr = err
			continue
		}
		return suggestions, nil
	}
	return nil, lastErr
}

// validateSuggestions enforces the full rule set: structural conformance,
// one suggestion per weak pillar with no duplicates, grounding in the
// original diagnostics, and a recomputed impact value.
func validateSuggestions(payload []suggestionPayload, weaknesses []models.PillarWeakness) ([]models.Suggestion, error) {
	if len(payload) != len(weaknesses) {
		return nil, errors.SchemaValidation(fmt.Sprintf(
			"expected %d suggestions, got %d", len(weaknesses), len(payload)))
	}

	byPillar := make(map[pillar.ID]models.PillarWeakness, len(weaknesses))
	for _, w := range weaknesses {
		byPillar[w.Pillar] = w
	}

	seen := make(map[pillar.ID]bool, len(payload))
	suggestions := make([]models.Suggestion, 0, len(payload))
	for i, p := range payload {
		id, ok := pillar.Normalize(p.Pillar)
		if !ok {
			return nil, errors.SchemaValidation(fmt.Sprintf("suggestion %d has unknown pillar %q", i, p.Pillar))
		}
		weakness, ok := byPillar[id]
		if !ok {
			return nil, errors.SchemaValidation(fmt.Sprintf("suggestion %d targets %q, which is not a weak pillar", i, id))
		}
		if seen[id] {
			return nil, errors.SchemaValidation(fmt.Sprintf("duplicate suggestion for pillar %q", id))
		}
		seen[id] = true

		if strings.TrimSpace(p.Issue) == "" || strings.TrimSpace(p.Rationale) == "" || strings.TrimSpace(p.Suggestion) == "" {
			return nil, errors.SchemaValidation(fmt.Sprintf("suggestion for %q has empty fields", id))
		}
		if !isGrounded(p.Rationale+" "+p.Suggestion, weakness) {
			return nil, errors.SchemaValidation(fmt.Sprintf(
				"suggestion for %q does not reference the reported weakness", id))
		}

		suggestions = append(suggestions, models.Suggestion{
			Pillar:          id,
			Issue:           p.Issue,
			Rationale:       p.Rationale,
			Suggestion:      p.Suggestion,
			EstimatedImpact: models.EstimatedImpact(weakness.Score),
		})
	}
	return suggestions, nil
}

// isGrounded checks that the suggestion text shares at least one
// substantial keyword with the weakness rationale or its notes.
func isGrounded(text string, weakness models.PillarWeakness) bool {
	haystack := strings.ToLower(text)
	source := weakness.Rationale + " " + strings.Join(weakness.Weaknesses, " ")
	candidates := keywords(source)
	if len(candidates) == 0 {
		// Nothing substantial to anchor against; the check cannot apply.
		return true
	}
	for _, keyword := range candidates {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

// keywords tokenizes text into lowercase words of minKeywordLength or more.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minKeywordLength {
			out = append(out, f)
		}
	}
	return out
}
