package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/internal/runner"
	"ideaforge/models"
	"ideaforge/ports"
)

// sectionScorer is the slice of the AI layer the coordinator needs.
type sectionScorer interface {
	Evaluate(ctx context.Context, section pillar.ID, idea models.IdeaInput) (*models.SectionResult, error)
}

// maxConcurrentSections bounds parallel collaborator calls within one run.
const maxConcurrentSections = 3

// ValidationService owns the report lifecycle: it starts detached runs,
// fans out to the section evaluator, merges results, and finalizes via
// the pillar aggregator.
type ValidationService struct {
	reports    ports.ReportRepository
	evaluator  sectionScorer
	supervisor *runner.Supervisor
}

// NewValidationService creates the coordinator.
func NewValidationService(reports ports.ReportRepository, evaluator sectionScorer, supervisor *runner.Supervisor) *ValidationService {
	return &ValidationService{
		reports:    reports,
		evaluator:  evaluator,
		supervisor: supervisor,
	}
}

// Start persists a queued report and returns its id immediately. The
// evaluation runs detached; callers poll Status until the report reaches a
// terminal state. Every call mints a new report id, so a retried request
// starts a fresh run rather than fighting over an existing row.
func (s *ValidationService) Start(ctx context.Context, ownerID, projectID uuid.UUID, idea models.IdeaInput) (uuid.UUID, error) {
	if strings.TrimSpace(idea.Title) == "" && strings.TrimSpace(idea.Summary) == "" {
		return uuid.Nil, errors.MissingInput("idea has no title or summary to evaluate")
	}

	now := time.Now().UTC()
	report := &models.ValidationReport{
		ID:          uuid.New(),
		ProjectID:   projectID,
		OwnerID:     ownerID,
		IdeaTitle:   idea.Title,
		IdeaSummary: idea.Summary,
		Status:      models.ReportQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to create report")
	}

	reportID := report.ID
	s.supervisor.Spawn(fmt.Sprintf("validation-%s", reportID), func(taskCtx context.Context) error {
		return s.runReport(taskCtx, ownerID, reportID, idea)
	}, func(err error) {
		if err == nil {
			return
		}
		// Terminal write for anything the run itself could not persist.
		s.persistFailure(ownerID, reportID, err)
	})

	return reportID, nil
}

// runReport executes the full evaluation for a detached run.
func (s *ValidationService) runReport(ctx context.Context, ownerID, reportID uuid.UUID, idea models.IdeaInput) error {
	running := models.ReportRunning
	if err := s.reports.UpdateReport(ctx, ownerID, reportID, ports.ReportPatch{Status: &running}); err != nil {
		return errors.Wrap(err, "failed to mark report running")
	}

	results, failures := s.evaluateSections(ctx, idea)

	report, err := s.reports.GetReportByID(ctx, ownerID, reportID)
	if err != nil {
		return errors.Wrap(err, "failed to reload report")
	}
	patch := s.mergePatch(report, results)

	if len(failures) > 0 {
		// Partial section results stay visible alongside the failure.
		msg := joinFailures(failures)
		failed := models.ReportFailed
		patch.Status = &failed
		patch.Error = &msg
		patch.Completed = true
		if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
			return errors.Wrap(err, "failed to persist failed report")
		}
		return nil
	}

	summary := pillar.AggregateDefault(patch.Scores)
	succeeded := models.ReportSucceeded
	patch.Status = &succeeded
	patch.OverallConfidence = &summary.OverallConfidence
	patch.Recommendation = &summary.Recommendation
	patch.StrongCount = &summary.StrongCount
	patch.Completed = true
	if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
		return errors.Wrap(err, "failed to persist succeeded report")
	}
	log.Printf("[ValidationService] report %s succeeded (confidence=%d, recommendation=%s)",
		reportID, summary.OverallConfidence, summary.Recommendation)
	return nil
}

// evaluateSections fans the seven sections out over the evaluator with
// bounded concurrency. Failures of independent sections stay independent.
func (s *ValidationService) evaluateSections(ctx context.Context, idea models.IdeaInput) ([]*models.SectionResult, []models.SectionRunError) {
	sections := pillar.All()
	results := make([]*models.SectionResult, len(sections))
	failures := make([]models.SectionRunError, 0)
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSections)
	for i, section := range sections {
		g.Go(func() error {
			result, err := s.evaluator.Evaluate(groupCtx, section, idea)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, models.SectionRunError{Section: section, Message: err.Error()})
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(a, b int) bool { return failures[a].Section < failures[b].Section })
	compact := make([]*models.SectionResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			compact = append(compact, r)
		}
	}
	return compact, failures
}

// mergePatch folds fresh section results into the report's existing state,
// preserving completed flags for actions whose text is unchanged.
func (s *ValidationService) mergePatch(report *models.ValidationReport, results []*models.SectionResult) ports.ReportPatch {
	scores := make(map[pillar.ID]float64, len(results))
	rationales := make(map[pillar.ID]string, len(results))
	sections := make(map[string]*models.SectionResult, len(results))
	for key, prior := range report.Sections {
		sections[key] = prior
	}
	for id, score := range report.Scores {
		scores[id] = score
	}
	for id, text := range report.Rationales {
		rationales[id] = text
	}

	for _, result := range results {
		key := string(result.Section)
		if prior, ok := sections[key]; ok {
			result.Actions = models.MergeActions(prior.Actions, result.Actions)
		}
		sections[key] = result
		scores[result.Section] = result.Score
		rationales[result.Section] = result.Summary
	}

	return ports.ReportPatch{
		Scores:     scores,
		Rationales: rationales,
		Sections:   sections,
	}
}

// RunAll synchronously re-runs every section for an existing report and
// returns a multi-status result: per-section failures beside successes.
func (s *ValidationService) RunAll(ctx context.Context, ownerID, reportID uuid.UUID) (*models.RunAllResult, error) {
	report, err := s.reports.GetReportByID(ctx, ownerID, reportID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}

	idea := models.IdeaInput{Title: report.IdeaTitle, Summary: report.IdeaSummary}
	results, failures := s.evaluateSections(ctx, idea)
	patch := s.mergePatch(report, results)

	out := &models.RunAllResult{
		ReportID: reportID,
		Results:  results,
		Failures: failures,
	}

	if len(failures) > 0 {
		msg := joinFailures(failures)
		failed := models.ReportFailed
		patch.Status = &failed
		patch.Error = &msg
		patch.Completed = true
		if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
			return nil, errors.Wrap(err, "failed to persist partial results")
		}
		return out, nil
	}

	summary := pillar.AggregateDefault(patch.Scores)
	succeeded := models.ReportSucceeded
	empty := ""
	patch.Status = &succeeded
	patch.Error = &empty
	patch.OverallConfidence = &summary.OverallConfidence
	patch.Recommendation = &summary.Recommendation
	patch.StrongCount = &summary.StrongCount
	patch.Completed = true
	if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
		return nil, errors.Wrap(err, "failed to persist report")
	}
	out.Summary = &summary
	return out, nil
}

// RunSection re-runs one section synchronously. Unlike RunAll, its error
// propagates straight to the caller.
func (s *ValidationService) RunSection(ctx context.Context, ownerID, reportID uuid.UUID, section pillar.ID) (*models.SectionResult, error) {
	report, err := s.reports.GetReportByID(ctx, ownerID, reportID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}

	idea := models.IdeaInput{Title: report.IdeaTitle, Summary: report.IdeaSummary}
	result, err := s.evaluator.Evaluate(ctx, section, idea)
	if err != nil {
		return nil, err
	}

	patch := s.mergePatch(report, []*models.SectionResult{result})
	if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
		return nil, errors.Wrap(err, "failed to persist section result")
	}
	return patch.Sections[string(section)], nil
}

// Status returns the report for polling callers.
func (s *ValidationService) Status(ctx context.Context, ownerID, reportID uuid.UUID) (*models.ValidationReport, error) {
	report, err := s.reports.GetReportByID(ctx, ownerID, reportID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}
	return report, nil
}

// Latest returns a project's most recent report.
func (s *ValidationService) Latest(ctx context.Context, ownerID, projectID uuid.UUID) (*models.ValidationReport, error) {
	report, err := s.reports.GetLatestReportForProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}
	return report, nil
}

// persistFailure is the completion-callback terminal write: the detached
// task never throws, it leaves a failed report instead.
func (s *ValidationService) persistFailure(ownerID, reportID uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := cause.Error()
	failed := models.ReportFailed
	patch := ports.ReportPatch{Status: &failed, Error: &msg, Completed: true}
	if err := s.reports.UpdateReport(ctx, ownerID, reportID, patch); err != nil {
		log.Printf("[ValidationService] could not persist failure for report %s: %v", reportID, err)
	}
}

func joinFailures(failures []models.SectionRunError) string {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s: %s", f.Section, f.Message)
	}
	return strings.Join(parts, "; ")
}
