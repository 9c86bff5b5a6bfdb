package models

import "ideaforge/domain/pillar"

// PillarWeakness is the diagnostic input for suggestion generation:
// one weak pillar with its score, rationale, and observed weaknesses.
type PillarWeakness struct {
	Pillar     pillar.ID `json:"pillar"`
	Score      float64   `json:"score"`
	Rationale  string    `json:"rationale"`
	Weaknesses []string  `json:"weaknesses"`
}

// Suggestion is one remediation proposal for a weak pillar. The set of
// suggestions is replaced wholesale on each generation call. EstimatedImpact
// is derived from the pillar score, never taken from the AI.
type Suggestion struct {
	Pillar          pillar.ID `json:"pillar"`
	Issue           string    `json:"issue"`
	Rationale       string    `json:"rationale"`
	Suggestion      string    `json:"suggestion"`
	EstimatedImpact int       `json:"estimated_impact"`
}

// EstimatedImpact computes the deterministic impact value for a pillar
// score: weaker pillars always show higher potential impact.
func EstimatedImpact(score float64) int {
	impact := 85 - pillar.RoundScore(score)
	if impact < 1 {
		impact = 1
	}
	return impact
}
