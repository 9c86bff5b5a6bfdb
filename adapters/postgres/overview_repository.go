package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// OverviewRepositoryImpl implements OverviewRepository for PostgreSQL
type OverviewRepositoryImpl struct {
	db *sqlx.DB
}

// NewOverviewRepository creates a new PostgreSQL overview repository
func NewOverviewRepository(db *sqlx.DB) ports.OverviewRepository {
	return &OverviewRepositoryImpl{db: db}
}

// UpsertOverview writes the overview snapshot; one row per project
func (r *OverviewRepositoryImpl) UpsertOverview(ctx context.Context, ownerID, projectID uuid.UUID, overview *models.ProductOverview) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return errors.Wrap(err, "failed to encode overview")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO product_overviews (project_id, owner_id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (project_id, owner_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()`, projectID, ownerID, payload)
	if err != nil {
		return errors.Wrap(err, "failed to upsert overview")
	}
	return nil
}

// GetOverview retrieves the current overview for a project
func (r *OverviewRepositoryImpl) GetOverview(ctx context.Context, ownerID, projectID uuid.UUID) (*models.ProductOverview, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM product_overviews
		WHERE owner_id = $1 AND project_id = $2`, ownerID, projectID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("overview")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load overview")
	}

	var overview models.ProductOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, errors.Wrap(err, "failed to decode overview")
	}
	return &overview, nil
}
