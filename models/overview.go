package models

import (
	"time"

	"github.com/google/uuid"

	"ideaforge/domain/pillar"
)

// Persona describes one target user of the idea.
type Persona struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Needs   []string `json:"needs"`
}

// Risk pairs a named risk with its mitigation.
type Risk struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// ProductOverview is the structured representation of an idea. Overviews
// are immutable snapshots: refinement produces a new overview plus a diff
// against the prior one, never an in-place edit.
type ProductOverview struct {
	RefinedPitch        string    `json:"refined_pitch"`
	ProblemSummary      string    `json:"problem_summary"`
	Personas            []Persona `json:"personas"`
	Solution            string    `json:"solution"`
	CoreFeatures        []string  `json:"core_features"`
	UniqueValue         string    `json:"unique_value"`
	CompetitionNote     string    `json:"competition_note"`
	Risks               []Risk    `json:"risks"`
	MonetisationOptions []string  `json:"monetisation_options"`
	BuildNotes          []string  `json:"build_notes"`
}

// Clone returns a deep copy so callers can hold a snapshot safely.
func (o *ProductOverview) Clone() *ProductOverview {
	if o == nil {
		return nil
	}
	c := *o
	c.Personas = make([]Persona, len(o.Personas))
	for i, p := range o.Personas {
		c.Personas[i] = Persona{Name: p.Name, Summary: p.Summary, Needs: append([]string(nil), p.Needs...)}
	}
	c.CoreFeatures = append([]string(nil), o.CoreFeatures...)
	c.Risks = append([]Risk(nil), o.Risks...)
	c.MonetisationOptions = append([]string(nil), o.MonetisationOptions...)
	c.BuildNotes = append([]string(nil), o.BuildNotes...)
	return &c
}

// MergeOverview applies replacement semantics: every populated field of
// next wins, fields the rewrite omitted keep their prior value. The result
// is a fresh snapshot; neither input is mutated.
func MergeOverview(prev, next *ProductOverview) *ProductOverview {
	if prev == nil {
		return next.Clone()
	}
	merged := next.Clone()
	if merged.RefinedPitch == "" {
		merged.RefinedPitch = prev.RefinedPitch
	}
	if merged.ProblemSummary == "" {
		merged.ProblemSummary = prev.ProblemSummary
	}
	if len(merged.Personas) == 0 {
		merged.Personas = prev.Clone().Personas
	}
	if merged.Solution == "" {
		merged.Solution = prev.Solution
	}
	if len(merged.CoreFeatures) == 0 {
		merged.CoreFeatures = append([]string(nil), prev.CoreFeatures...)
	}
	if merged.UniqueValue == "" {
		merged.UniqueValue = prev.UniqueValue
	}
	if merged.CompetitionNote == "" {
		merged.CompetitionNote = prev.CompetitionNote
	}
	if len(merged.Risks) == 0 {
		merged.Risks = append([]Risk(nil), prev.Risks...)
	}
	if len(merged.MonetisationOptions) == 0 {
		merged.MonetisationOptions = append([]string(nil), prev.MonetisationOptions...)
	}
	if len(merged.BuildNotes) == 0 {
		merged.BuildNotes = append([]string(nil), prev.BuildNotes...)
	}
	return merged
}

// SectionDiff records one field-level change made by a refinement step.
type SectionDiff struct {
	Section string `json:"section"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// IterationSource distinguishes user-invoked refinements from the
// auto-improve loop.
type IterationSource string

const (
	SourceManual IterationSource = "manual"
	SourceAuto   IterationSource = "auto"
)

// ImprovementIteration is an append-only history record for one
// refinement call. Entries are never mutated or reordered; later entries
// causally depend on earlier ones.
type ImprovementIteration struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ProjectID      uuid.UUID       `json:"project_id" db:"project_id"`
	PillarImpacted pillar.ID       `json:"pillar_impacted" db:"pillar_impacted"`
	ScoreDelta     float64         `json:"score_delta" db:"score_delta"`
	Differences    []SectionDiff   `json:"differences"`
	BeforeText     string          `json:"before_text" db:"before_text"`
	AfterText      string          `json:"after_text" db:"after_text"`
	Source         IterationSource `json:"source" db:"source"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
