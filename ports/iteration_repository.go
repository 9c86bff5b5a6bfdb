package ports

import (
	"context"

	"github.com/google/uuid"

	"ideaforge/models"
)

// IterationRepository persists the append-only refinement history.
type IterationRepository interface {
	// AppendIteration stores one improvement iteration. Insert order is
	// preserved; entries are never updated.
	AppendIteration(ctx context.Context, ownerID uuid.UUID, iteration *models.ImprovementIteration) error

	// ListIterations returns a project's iterations oldest first.
	ListIterations(ctx context.Context, ownerID, projectID uuid.UUID) ([]*models.ImprovementIteration, error)

	// PurgeIterations removes a project's history on explicit user request.
	PurgeIterations(ctx context.Context, ownerID, projectID uuid.UUID) error
}
