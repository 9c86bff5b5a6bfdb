package ai

import (
	"context"
	"fmt"
	"strings"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// sectionPayload is the JSON shape expected from the collaborator for one
// scoring dimension.
type sectionPayload struct {
	Score   float64  `json:"score"`
	Summary string   `json:"summary"`
	Actions []string `json:"actions"`
}

// SectionEvaluator runs one scoring dimension through the collaborator
// and returns a validated SectionResult. It performs no retries and no
// persistence; both are the caller's concern.
type SectionEvaluator struct {
	client *StructuredClient[sectionPayload]
}

// NewSectionEvaluator creates an evaluator over the generation port.
func NewSectionEvaluator(generator ports.TextGenerator, config *models.AIConfig) *SectionEvaluator {
	systemContext := "You are a startup idea evaluator. Score one dimension of an idea honestly and respond with valid JSON only."
	return &SectionEvaluator{
		client: NewStructuredClient[sectionPayload](generator, config, systemContext),
	}
}

// Evaluate scores one section of an idea.
func (e *SectionEvaluator) Evaluate(ctx context.Context, section pillar.ID, idea models.IdeaInput) (*models.SectionResult, error) {
	if !pillar.IsValid(section) {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown section %q", section))
	}
	if strings.TrimSpace(idea.Title) == "" && strings.TrimSpace(idea.Summary) == "" {
		return nil, errors.MissingInput("idea has no title or summary to evaluate")
	}

	prompt := renderPrompt(sectionPromptTemplate, map[string]string{
		"section":      string(section),
		"title":        idea.Title,
		"summary":      idea.Summary,
		"prior_review": idea.PriorReview,
	})

	payload, err := e.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return nil, errors.SchemaValidation("section response is missing a summary")
	}

	actions := make([]models.ActionItem, 0, len(payload.Actions))
	for _, text := range payload.Actions {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		actions = append(actions, models.ActionItem{Text: text})
	}

	return &models.SectionResult{
		Section: section,
		Score:   pillar.ClampScore(payload.Score),
		Summary: payload.Summary,
		Actions: actions,
	}, nil
}
