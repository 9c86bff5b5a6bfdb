package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"ideaforge/ai"
	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// Default convergence parameters for the auto-improve loop.
const (
	DefaultTargetScore = 90.0
	DefaultMaxLoops    = 4
)

// rewriteProposer is the slice of the AI layer this service needs.
type rewriteProposer interface {
	Propose(ctx context.Context, overview *models.ProductOverview, target pillar.ID, diag ai.PillarDiagnostics) (*ai.RefinementProposal, error)
}

// ImproveResult is the outcome of one refinement step.
type ImproveResult struct {
	ImprovedOverview *models.ProductOverview      `json:"improved_overview"`
	Differences      []models.SectionDiff         `json:"differences"`
	PillarImpacted   pillar.ID                    `json:"pillar_impacted"`
	ScoreDelta       float64                      `json:"score_delta"`
	UpdatedScores    map[pillar.ID]float64        `json:"updated_scores"`
	Iteration        *models.ImprovementIteration `json:"-"`
}

// AutoImproveResult is the outcome of the convergence loop.
type AutoImproveResult struct {
	FinalOverview *models.ProductOverview        `json:"final_overview"`
	FinalScores   map[pillar.ID]float64          `json:"final_scores"`
	Iterations    []*models.ImprovementIteration `json:"iterations"`
	ReachedTarget bool                           `json:"reached_target"`
}

// DeltaSummary aggregates the score movement across a project's history.
type DeltaSummary struct {
	Count       int     `json:"count"`
	MeanDelta   float64 `json:"mean_delta"`
	MedianDelta float64 `json:"median_delta"`
	TotalGain   float64 `json:"total_gain"`
}

// RefinementEngine rewrites an idea toward a target confidence score, one
// pillar at a time, recording every step as an immutable iteration.
type RefinementEngine struct {
	overviews  ports.OverviewRepository
	iterations ports.IterationRepository
	proposer   rewriteProposer
}

// NewRefinementEngine creates the engine.
func NewRefinementEngine(overviews ports.OverviewRepository, iterations ports.IterationRepository, proposer rewriteProposer) *RefinementEngine {
	return &RefinementEngine{
		overviews:  overviews,
		iterations: iterations,
		proposer:   proposer,
	}
}

// Improve runs one refinement step. When target is nil the pillar with
// the lowest score is selected (first-seen order breaks ties). A schema
// failure propagates and leaves overview and scores exactly as they were.
func (e *RefinementEngine) Improve(ctx context.Context, ownerID, projectID uuid.UUID, overview *models.ProductOverview, scores map[pillar.ID]float64, target *pillar.ID, diag ai.PillarDiagnostics, source models.IterationSource) (*ImproveResult, error) {
	if overview == nil {
		return nil, errors.MissingInput("no overview to improve")
	}
	if len(scores) == 0 {
		return nil, errors.MissingInput("no pillar scores to improve against")
	}

	impacted, err := selectTarget(scores, target)
	if err != nil {
		return nil, err
	}
	diag.Score = scores[impacted]

	proposal, err := e.proposer.Propose(ctx, overview, impacted, diag)
	if err != nil {
		return nil, err
	}

	updated := make(map[pillar.ID]float64, len(scores))
	for id, score := range scores {
		updated[id] = score
	}
	updated[impacted] = pillar.ClampScore(scores[impacted] + proposal.ScoreDelta)

	beforeText, _ := json.Marshal(overview)
	afterText, _ := json.Marshal(proposal.Overview)
	iteration := &models.ImprovementIteration{
		ID:             uuid.New(),
		ProjectID:      projectID,
		PillarImpacted: impacted,
		ScoreDelta:     proposal.ScoreDelta,
		Differences:    proposal.Differences,
		BeforeText:     string(beforeText),
		AfterText:      string(afterText),
		Source:         source,
		CreatedAt:      time.Now().UTC(),
	}

	// The history record goes in first: if either write fails, the stored
	// overview is unchanged and the idea is never altered without a trace.
	if err := e.iterations.AppendIteration(ctx, ownerID, iteration); err != nil {
		return nil, errors.Wrap(err, "failed to record improvement iteration")
	}
	if err := e.overviews.UpsertOverview(ctx, ownerID, projectID, proposal.Overview); err != nil {
		return nil, errors.Wrap(err, "failed to persist refined overview")
	}

	return &ImproveResult{
		ImprovedOverview: proposal.Overview,
		Differences:      proposal.Differences,
		PillarImpacted:   impacted,
		ScoreDelta:       proposal.ScoreDelta,
		UpdatedScores:    updated,
		Iteration:        iteration,
	}, nil
}

// AutoImprove repeatedly targets the current weakest pillar until it
// meets targetScore or maxLoops iterations have run. A failure inside the
// loop halts iteration but keeps every prior successful improvement; the
// partial result is returned beside the error.
func (e *RefinementEngine) AutoImprove(ctx context.Context, ownerID, projectID uuid.UUID, overview *models.ProductOverview, scores map[pillar.ID]float64, targetScore float64, maxLoops int) (*AutoImproveResult, error) {
	if targetScore <= 0 {
		targetScore = DefaultTargetScore
	}
	if maxLoops <= 0 {
		maxLoops = DefaultMaxLoops
	}

	current := overview
	currentScores := make(map[pillar.ID]float64, len(scores))
	for id, score := range scores {
		currentScores[id] = score
	}

	result := &AutoImproveResult{
		FinalOverview: current,
		FinalScores:   currentScores,
		Iterations:    []*models.ImprovementIteration{},
	}

	for loop := 0; loop < maxLoops; loop++ {
		weakest, ok := pillar.Weakest(currentScores, pillar.All())
		if !ok {
			return result, errors.MissingInput("no pillar scores to improve against")
		}
		if currentScores[weakest] >= targetScore {
			result.ReachedTarget = true
			return result, nil
		}

		step, err := e.Improve(ctx, ownerID, projectID, current, currentScores, &weakest, ai.PillarDiagnostics{}, models.SourceAuto)
		if err != nil {
			log.Printf("[RefinementEngine] auto-improve halted on loop %d: %v", loop+1, err)
			return result, err
		}

		current = step.ImprovedOverview
		currentScores = step.UpdatedScores
		result.FinalOverview = current
		result.FinalScores = currentScores
		result.Iterations = append(result.Iterations, step.Iteration)
	}

	if weakest, ok := pillar.Weakest(currentScores, pillar.All()); ok {
		result.ReachedTarget = currentScores[weakest] >= targetScore
	}
	return result, nil
}

// History returns a project's iterations oldest first with a delta summary.
func (e *RefinementEngine) History(ctx context.Context, ownerID, projectID uuid.UUID) ([]*models.ImprovementIteration, *DeltaSummary, error) {
	iterations, err := e.iterations.ListIterations(ctx, ownerID, projectID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load improvement history")
	}
	return iterations, SummarizeDeltas(iterations), nil
}

// PurgeHistory removes a project's iteration history on explicit request.
func (e *RefinementEngine) PurgeHistory(ctx context.Context, ownerID, projectID uuid.UUID) error {
	return e.iterations.PurgeIterations(ctx, ownerID, projectID)
}

// SummarizeDeltas computes mean, median, and cumulative score movement
// over a set of iterations.
func SummarizeDeltas(iterations []*models.ImprovementIteration) *DeltaSummary {
	summary := &DeltaSummary{Count: len(iterations)}
	if len(iterations) == 0 {
		return summary
	}
	deltas := make([]float64, len(iterations))
	for i, it := range iterations {
		deltas[i] = it.ScoreDelta
		summary.TotalGain += it.ScoreDelta
	}
	if mean, err := stats.Mean(deltas); err == nil {
		summary.MeanDelta = mean
	}
	if median, err := stats.Median(deltas); err == nil {
		summary.MedianDelta = median
	}
	return summary
}

// selectTarget resolves the pillar a refinement step should attack.
func selectTarget(scores map[pillar.ID]float64, target *pillar.ID) (pillar.ID, error) {
	if target != nil {
		if !pillar.IsValid(*target) {
			return "", errors.InvalidInput("unknown target pillar")
		}
		return *target, nil
	}
	weakest, ok := pillar.Weakest(scores, pillar.All())
	if !ok {
		return "", errors.MissingInput("no pillar scores to improve against")
	}
	return weakest, nil
}
