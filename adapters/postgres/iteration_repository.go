package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// IterationRepositoryImpl implements IterationRepository for PostgreSQL
type IterationRepositoryImpl struct {
	db *sqlx.DB
}

// NewIterationRepository creates a new PostgreSQL iteration repository
func NewIterationRepository(db *sqlx.DB) ports.IterationRepository {
	return &IterationRepositoryImpl{db: db}
}

// AppendIteration stores one improvement iteration; rows are never updated
func (r *IterationRepositoryImpl) AppendIteration(ctx context.Context, ownerID uuid.UUID, iteration *models.ImprovementIteration) error {
	differencesJSON, _ := json.Marshal(iteration.Differences)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO improvement_iterations (
			id, project_id, owner_id, pillar_impacted, score_delta,
			differences, before_text, after_text, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		iteration.ID, iteration.ProjectID, ownerID, iteration.PillarImpacted,
		iteration.ScoreDelta, differencesJSON, iteration.BeforeText,
		iteration.AfterText, iteration.Source)
	if err != nil {
		return errors.Wrap(err, "failed to append iteration")
	}
	return nil
}

// ListIterations returns a project's iterations oldest first
func (r *IterationRepositoryImpl) ListIterations(ctx context.Context, ownerID, projectID uuid.UUID) ([]*models.ImprovementIteration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, pillar_impacted, score_delta,
		       differences, before_text, after_text, source, created_at
		FROM improvement_iterations
		WHERE owner_id = $1 AND project_id = $2
		ORDER BY created_at ASC`, ownerID, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list iterations")
	}
	defer rows.Close()

	var iterations []*models.ImprovementIteration
	for rows.Next() {
		var it models.ImprovementIteration
		var differencesJSON []byte

		err := rows.Scan(
			&it.ID, &it.ProjectID, &it.PillarImpacted, &it.ScoreDelta,
			&differencesJSON, &it.BeforeText, &it.AfterText, &it.Source, &it.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan iteration")
		}
		if len(differencesJSON) > 0 {
			json.Unmarshal(differencesJSON, &it.Differences)
		}
		iterations = append(iterations, &it)
	}
	return iterations, rows.Err()
}

// PurgeIterations removes a project's history
func (r *IterationRepositoryImpl) PurgeIterations(ctx context.Context, ownerID, projectID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM improvement_iterations
		WHERE owner_id = $1 AND project_id = $2`, ownerID, projectID)
	if err != nil {
		return errors.Wrap(err, "failed to purge iterations")
	}
	return nil
}
