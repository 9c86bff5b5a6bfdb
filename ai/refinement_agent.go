package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// PillarDiagnostics carries the evidence shown to the collaborator when
// rewriting toward a target pillar.
type PillarDiagnostics struct {
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

type refinementPayload struct {
	Overview    models.ProductOverview `json:"overview"`
	Differences []models.SectionDiff   `json:"differences"`
	ScoreDelta  float64                `json:"score_delta"`
}

// RefinementProposal is a validated rewrite: the replacement overview,
// the section diffs against the prior snapshot, and the proposed delta
// for the target pillar.
type RefinementProposal struct {
	Overview    *models.ProductOverview
	Differences []models.SectionDiff
	ScoreDelta  float64
}

// RefinementAgent asks the collaborator for a full replacement overview
// plus diffs. Schema failures are raised; the agent never falls back to
// guessed content.
type RefinementAgent struct {
	client *StructuredClient[refinementPayload]
}

// NewRefinementAgent creates an agent over the generation port.
func NewRefinementAgent(generator ports.TextGenerator, config *models.AIConfig) *RefinementAgent {
	systemContext := "You are a product strategist. Rewrite the overview to strengthen the target pillar and respond with valid JSON only."
	return &RefinementAgent{
		client: NewStructuredClient[refinementPayload](generator, config, systemContext),
	}
}

// Propose requests one rewrite targeting the given pillar.
func (a *RefinementAgent) Propose(ctx context.Context, overview *models.ProductOverview, target pillar.ID, diag PillarDiagnostics) (*RefinementProposal, error) {
	if overview == nil {
		return nil, errors.MissingInput("no overview to refine")
	}
	if !pillar.IsValid(target) {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown pillar %q", target))
	}

	overviewJSON, err := json.Marshal(overview)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode overview")
	}
	diagJSON, err := json.Marshal(diag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode diagnostics")
	}

	prompt := renderPrompt(refinementPromptTemplate, map[string]string{
		"pillar":      string(target),
		"score":       fmt.Sprintf("%.0f", diag.Score),
		"diagnostics": string(diagJSON),
		"overview":    string(overviewJSON),
	})

	payload, err := a.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if err := validateRefinement(payload); err != nil {
		return nil, err
	}

	merged := models.MergeOverview(overview, &payload.Overview)
	return &RefinementProposal{
		Overview:    merged,
		Differences: payload.Differences,
		ScoreDelta:  payload.ScoreDelta,
	}, nil
}

// validateRefinement enforces the overview schema on the rewrite.
func validateRefinement(payload *refinementPayload) error {
	o := payload.Overview
	if strings.TrimSpace(o.RefinedPitch) == "" &&
		strings.TrimSpace(o.ProblemSummary) == "" &&
		strings.TrimSpace(o.Solution) == "" {
		return errors.SchemaValidation("rewritten overview is empty")
	}
	for i, d := range payload.Differences {
		if strings.TrimSpace(d.Section) == "" {
			return errors.SchemaValidation(fmt.Sprintf("difference %d is missing its section", i))
		}
	}
	return nil
}
