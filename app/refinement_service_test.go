package app

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/ai"
	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
)

// memoryOverviewRepo is an in-memory OverviewRepository for engine tests.
type memoryOverviewRepo struct {
	mu        sync.Mutex
	overviews map[uuid.UUID]*models.ProductOverview
}

func newMemoryOverviewRepo() *memoryOverviewRepo {
	return &memoryOverviewRepo{overviews: make(map[uuid.UUID]*models.ProductOverview)}
}

func (r *memoryOverviewRepo) UpsertOverview(_ context.Context, _, projectID uuid.UUID, overview *models.ProductOverview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overviews[projectID] = overview.Clone()
	return nil
}

func (r *memoryOverviewRepo) GetOverview(_ context.Context, _, projectID uuid.UUID) (*models.ProductOverview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	overview, ok := r.overviews[projectID]
	if !ok {
		return nil, errors.NotFound("overview")
	}
	return overview.Clone(), nil
}

// memoryIterationRepo is an in-memory IterationRepository.
type memoryIterationRepo struct {
	mu         sync.Mutex
	iterations []*models.ImprovementIteration
}

func (r *memoryIterationRepo) AppendIteration(_ context.Context, _ uuid.UUID, iteration *models.ImprovementIteration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iterations = append(r.iterations, iteration)
	return nil
}

func (r *memoryIterationRepo) ListIterations(_ context.Context, _, projectID uuid.UUID) ([]*models.ImprovementIteration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ImprovementIteration, 0, len(r.iterations))
	for _, it := range r.iterations {
		if it.ProjectID == projectID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memoryIterationRepo) PurgeIterations(_ context.Context, _, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.iterations[:0]
	for _, it := range r.iterations {
		if it.ProjectID != projectID {
			kept = append(kept, it)
		}
	}
	r.iterations = kept
	return nil
}

// fakeProposer returns a fixed delta per call and can be told to fail on
// every call past failAfter.
type fakeProposer struct {
	delta     float64
	failAfter int
	calls     int
}

func (p *fakeProposer) Propose(_ context.Context, overview *models.ProductOverview, target pillar.ID, _ ai.PillarDiagnostics) (*ai.RefinementProposal, error) {
	p.calls++
	if p.failAfter != 0 && p.calls > p.failAfter {
		return nil, errors.SchemaValidation("rewrite is missing required sections")
	}
	improved := overview.Clone()
	improved.RefinedPitch = overview.RefinedPitch + " (sharpened)"
	return &ai.RefinementProposal{
		Overview: improved,
		Differences: []models.SectionDiff{
			{Section: "refined_pitch", Before: overview.RefinedPitch, After: improved.RefinedPitch},
		},
		ScoreDelta: p.delta,
	}, nil
}

func baseOverview() *models.ProductOverview {
	return &models.ProductOverview{
		RefinedPitch:   "Robots deliver lunch",
		ProblemSummary: "Downtown lunch delivery is slow",
		Solution:       "Sidewalk robots",
	}
}

func newTestEngine(proposer rewriteProposer) (*RefinementEngine, *memoryOverviewRepo, *memoryIterationRepo) {
	overviews := newMemoryOverviewRepo()
	iterations := &memoryIterationRepo{}
	return NewRefinementEngine(overviews, iterations, proposer), overviews, iterations
}

func TestImproveTargetsWeakestByDefault(t *testing.T) {
	engine, overviews, iterations := newTestEngine(&fakeProposer{delta: 12})
	ownerID, projectID := uuid.New(), uuid.New()
	scores := map[pillar.ID]float64{pillar.Problem: 70, pillar.Pricing: 45, pillar.Market: 60}

	result, err := engine.Improve(context.Background(), ownerID, projectID, baseOverview(), scores, nil, ai.PillarDiagnostics{}, models.SourceManual)
	require.NoError(t, err)

	assert.Equal(t, pillar.Pricing, result.PillarImpacted)
	assert.Equal(t, 57.0, result.UpdatedScores[pillar.Pricing])
	assert.Equal(t, 70.0, result.UpdatedScores[pillar.Problem], "untargeted scores are untouched")
	assert.Len(t, result.Differences, 1)

	stored, err := overviews.GetOverview(context.Background(), ownerID, projectID)
	require.NoError(t, err)
	assert.Contains(t, stored.RefinedPitch, "(sharpened)")

	history, err := iterations.ListIterations(context.Background(), ownerID, projectID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SourceManual, history[0].Source)
	assert.NotEmpty(t, history[0].BeforeText)
	assert.NotEmpty(t, history[0].AfterText)
}

func TestImproveClampsUpdatedScore(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 40})
	scores := map[pillar.ID]float64{pillar.Market: 85}

	result, err := engine.Improve(context.Background(), uuid.New(), uuid.New(), baseOverview(), scores, nil, ai.PillarDiagnostics{}, models.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.UpdatedScores[pillar.Market])
}

func TestImproveFailureLeavesStateUntouched(t *testing.T) {
	// failAfter -1 makes every Propose call fail.
	engine, overviews, iterations := newTestEngine(&fakeProposer{failAfter: -1})
	ownerID, projectID := uuid.New(), uuid.New()

	_, err := engine.Improve(context.Background(), ownerID, projectID, baseOverview(), map[pillar.ID]float64{pillar.Market: 50}, nil, ai.PillarDiagnostics{}, models.SourceManual)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSchemaValidation, errors.GetCode(err))

	_, err = overviews.GetOverview(context.Background(), ownerID, projectID)
	assert.Error(t, err, "no overview is written on failure")
	history, _ := iterations.ListIterations(context.Background(), ownerID, projectID)
	assert.Empty(t, history, "no iteration is recorded on failure")
}

// failingIterationRepo rejects every append.
type failingIterationRepo struct {
	memoryIterationRepo
}

func (r *failingIterationRepo) AppendIteration(context.Context, uuid.UUID, *models.ImprovementIteration) error {
	return errors.DatabaseError("insert failed")
}

func TestImproveHistoryFailureLeavesOverviewUntouched(t *testing.T) {
	overviews := newMemoryOverviewRepo()
	engine := NewRefinementEngine(overviews, &failingIterationRepo{}, &fakeProposer{delta: 10})
	ownerID, projectID := uuid.New(), uuid.New()

	_, err := engine.Improve(context.Background(), ownerID, projectID, baseOverview(), map[pillar.ID]float64{pillar.Market: 50}, nil, ai.PillarDiagnostics{}, models.SourceManual)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	// The overview write happens after the history write, so a failed
	// append never leaves an unrecorded idea change.
	_, err = overviews.GetOverview(context.Background(), ownerID, projectID)
	assert.Error(t, err)
}

func TestImproveRejectsUnknownTarget(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 10})
	bad := pillar.ID("virality")

	_, err := engine.Improve(context.Background(), uuid.New(), uuid.New(), baseOverview(), map[pillar.ID]float64{pillar.Market: 50}, &bad, ai.PillarDiagnostics{}, models.SourceManual)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAutoImproveStopsAtTarget(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 30})
	scores := map[pillar.ID]float64{pillar.Problem: 95, pillar.Market: 40}

	result, err := engine.AutoImprove(context.Background(), uuid.New(), uuid.New(), baseOverview(), scores, 90, 4)
	require.NoError(t, err)

	assert.True(t, result.ReachedTarget)
	// 40 -> 70 -> 100: two iterations lift the weakest pillar past 90.
	assert.Len(t, result.Iterations, 2)
	assert.Equal(t, 100.0, result.FinalScores[pillar.Market])
	for _, it := range result.Iterations {
		assert.Equal(t, models.SourceAuto, it.Source)
	}
}

func TestAutoImproveZeroIterationsWhenAlreadyStrong(t *testing.T) {
	proposer := &fakeProposer{delta: 10}
	engine, _, _ := newTestEngine(proposer)
	scores := map[pillar.ID]float64{pillar.Problem: 92, pillar.Market: 95}

	result, err := engine.AutoImprove(context.Background(), uuid.New(), uuid.New(), baseOverview(), scores, 90, 4)
	require.NoError(t, err)

	assert.True(t, result.ReachedTarget)
	assert.Empty(t, result.Iterations)
	assert.Equal(t, 0, proposer.calls)
}

func TestAutoImproveHonorsMaxLoops(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 1})
	scores := map[pillar.ID]float64{pillar.Market: 10}

	result, err := engine.AutoImprove(context.Background(), uuid.New(), uuid.New(), baseOverview(), scores, 90, 3)
	require.NoError(t, err)

	assert.False(t, result.ReachedTarget)
	assert.Len(t, result.Iterations, 3)
	assert.Equal(t, 13.0, result.FinalScores[pillar.Market])
}

func TestAutoImproveKeepsPriorIterationsOnFailure(t *testing.T) {
	engine, _, repo := newTestEngine(&fakeProposer{delta: 5, failAfter: 2})
	ownerID, projectID := uuid.New(), uuid.New()
	scores := map[pillar.ID]float64{pillar.Market: 20}

	result, err := engine.AutoImprove(context.Background(), ownerID, projectID, baseOverview(), scores, 90, 4)
	require.Error(t, err)

	assert.Len(t, result.Iterations, 2, "successful iterations survive the halt")
	assert.Equal(t, 30.0, result.FinalScores[pillar.Market])

	history, _ := repo.ListIterations(context.Background(), ownerID, projectID)
	assert.Len(t, history, 2)
}

func TestHistorySummarizesDeltas(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 5})
	ownerID, projectID := uuid.New(), uuid.New()
	scores := map[pillar.ID]float64{pillar.Market: 20}

	_, err := engine.AutoImprove(context.Background(), ownerID, projectID, baseOverview(), scores, 90, 3)
	require.NoError(t, err)

	iterations, summary, err := engine.History(context.Background(), ownerID, projectID)
	require.NoError(t, err)
	assert.Len(t, iterations, 3)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 5.0, summary.MeanDelta, 0.001)
	assert.InDelta(t, 5.0, summary.MedianDelta, 0.001)
	assert.InDelta(t, 15.0, summary.TotalGain, 0.001)
}

func TestPurgeHistory(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeProposer{delta: 5})
	ownerID, projectID := uuid.New(), uuid.New()

	_, err := engine.Improve(context.Background(), ownerID, projectID, baseOverview(), map[pillar.ID]float64{pillar.Market: 40}, nil, ai.PillarDiagnostics{}, models.SourceManual)
	require.NoError(t, err)

	require.NoError(t, engine.PurgeHistory(context.Background(), ownerID, projectID))

	iterations, summary, err := engine.History(context.Background(), ownerID, projectID)
	require.NoError(t, err)
	assert.Empty(t, iterations)
	assert.Equal(t, 0, summary.Count)
}

func TestSummarizeDeltasEmpty(t *testing.T) {
	summary := SummarizeDeltas(nil)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 0.0, summary.MeanDelta)
	assert.Equal(t, 0.0, summary.TotalGain)
}
