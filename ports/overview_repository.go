package ports

import (
	"context"

	"github.com/google/uuid"

	"ideaforge/models"
)

// OverviewRepository persists the structured idea representation. One
// overview row exists per project; refinement replaces it wholesale.
type OverviewRepository interface {
	// UpsertOverview writes the overview snapshot for a project.
	UpsertOverview(ctx context.Context, ownerID, projectID uuid.UUID, overview *models.ProductOverview) error

	// GetOverview retrieves the current overview for a project.
	GetOverview(ctx context.Context, ownerID, projectID uuid.UUID) (*models.ProductOverview, error)
}
