package models

import (
	"time"

	"github.com/google/uuid"

	"ideaforge/domain/pillar"
)

// ReportStatus tracks the lifecycle of one validation run.
type ReportStatus string

const (
	ReportQueued    ReportStatus = "queued"
	ReportRunning   ReportStatus = "running"
	ReportSucceeded ReportStatus = "succeeded"
	ReportFailed    ReportStatus = "failed"
)

// IsTerminal reports whether the status allows no further transitions.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportSucceeded || s == ReportFailed
}

// IdeaInput is the raw material a validation run evaluates.
type IdeaInput struct {
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	PriorReview string `json:"prior_review,omitempty"`
}

// ValidationReport is the top-level record of one validation run.
// A report transitions queued -> running -> succeeded|failed exactly once;
// after a terminal state only an explicit new run creates fresh state.
type ValidationReport struct {
	ID                uuid.UUID                 `json:"id" db:"id"`
	ProjectID         uuid.UUID                 `json:"project_id" db:"project_id"`
	OwnerID           uuid.UUID                 `json:"owner_id" db:"owner_id"`
	IdeaTitle         string                    `json:"idea_title" db:"idea_title"`
	IdeaSummary       string                    `json:"idea_summary" db:"idea_summary"`
	Status            ReportStatus              `json:"status" db:"status"`
	Scores            map[pillar.ID]float64     `json:"scores,omitempty"`
	Rationales        map[pillar.ID]string      `json:"rationales,omitempty"`
	OverallConfidence int                       `json:"overall_confidence"`
	Recommendation    pillar.Recommendation     `json:"recommendation,omitempty"`
	StrongCount       int                       `json:"strong_count"`
	Sections          map[string]*SectionResult `json:"sections,omitempty"`
	Error             string                    `json:"error,omitempty" db:"error"`
	CreatedAt         time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at" db:"updated_at"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty" db:"completed_at"`
}

// ActionItem is one recommended step inside a section result.
type ActionItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// SectionResult holds the outcome of one scoring dimension.
type SectionResult struct {
	Section pillar.ID    `json:"section"`
	Score   float64      `json:"score"`
	Summary string       `json:"summary"`
	Actions []ActionItem `json:"actions"`
}

// MergeActions carries completed flags forward from a previous run: any
// action whose text is unchanged keeps its prior completed state, new
// actions arrive unchecked.
func MergeActions(previous, next []ActionItem) []ActionItem {
	done := make(map[string]bool, len(previous))
	for _, a := range previous {
		if a.Completed {
			done[a.Text] = true
		}
	}
	merged := make([]ActionItem, len(next))
	for i, a := range next {
		merged[i] = ActionItem{Text: a.Text, Completed: a.Completed || done[a.Text]}
	}
	return merged
}

// SectionRunError records a per-section failure inside a batch run.
type SectionRunError struct {
	Section pillar.ID `json:"section"`
	Message string    `json:"message"`
}

// RunAllResult is the multi-status outcome of re-running every section:
// failures of independent sections do not erase sibling successes.
type RunAllResult struct {
	ReportID uuid.UUID         `json:"report_id"`
	Results  []*SectionResult  `json:"results"`
	Failures []SectionRunError `json:"failures,omitempty"`
	Summary  *pillar.Summary   `json:"summary,omitempty"`
}
