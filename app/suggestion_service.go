package app

import (
	"context"

	"github.com/google/uuid"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// suggestionMaker is the slice of the AI layer this service needs.
type suggestionMaker interface {
	Generate(ctx context.Context, idea models.IdeaInput, weaknesses []models.PillarWeakness) ([]models.Suggestion, error)
}

// SuggestionService turns a finished report's weak pillars into a set of
// remediation suggestions. The set is rebuilt wholesale on every call.
type SuggestionService struct {
	reports   ports.ReportRepository
	generator suggestionMaker
}

// NewSuggestionService creates the service.
func NewSuggestionService(reports ports.ReportRepository, generator suggestionMaker) *SuggestionService {
	return &SuggestionService{reports: reports, generator: generator}
}

// GenerateForReport builds PillarWeakness diagnostics from the report's
// scores and rationales, then asks the generator for one suggestion per
// weak pillar. Validation and retries happen inside the generator; its
// last error propagates unchanged.
func (s *SuggestionService) GenerateForReport(ctx context.Context, ownerID, reportID uuid.UUID) ([]models.Suggestion, error) {
	report, err := s.reports.GetReportByID(ctx, ownerID, reportID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}
	if len(report.Scores) == 0 {
		return nil, errors.MissingInput("report has no scores yet")
	}

	weaknesses := WeakPillars(report)
	if len(weaknesses) == 0 {
		return []models.Suggestion{}, nil
	}

	idea := models.IdeaInput{Title: report.IdeaTitle, Summary: report.IdeaSummary}
	return s.generator.Generate(ctx, idea, weaknesses)
}

// WeakPillars extracts the diagnostics for every pillar scoring below the
// strong threshold, in canonical pillar order. Open action items from the
// pillar's section feed the weakness notes.
func WeakPillars(report *models.ValidationReport) []models.PillarWeakness {
	weaknesses := make([]models.PillarWeakness, 0)
	for _, id := range pillar.All() {
		score, ok := report.Scores[id]
		if !ok || score >= pillar.StrongThreshold {
			continue
		}
		w := models.PillarWeakness{
			Pillar:    id,
			Score:     score,
			Rationale: report.Rationales[id],
		}
		if section, ok := report.Sections[string(id)]; ok {
			for _, action := range section.Actions {
				if !action.Completed {
					w.Weaknesses = append(w.Weaknesses, action.Text)
				}
			}
		}
		weaknesses = append(weaknesses, w)
	}
	return weaknesses
}
