package ports

import (
	"context"

	"github.com/google/uuid"

	"ideaforge/domain/pillar"
	"ideaforge/models"
)

// ReportPatch carries the mutable fields of a report update. Nil fields
// are left untouched; the store applies the patch as a single-row write.
type ReportPatch struct {
	Status            *models.ReportStatus
	Scores            map[pillar.ID]float64
	Rationales        map[pillar.ID]string
	Sections          map[string]*models.SectionResult
	OverallConfidence *int
	Recommendation    *pillar.Recommendation
	StrongCount       *int
	Error             *string
	Completed         bool
}

// ReportRepository defines persistence for validation reports. Every
// operation is scoped by owner; cross-owner access returns not found.
type ReportRepository interface {
	// CreateReport persists a new queued report.
	CreateReport(ctx context.Context, report *models.ValidationReport) error

	// UpdateReport applies a patch to an existing report row.
	UpdateReport(ctx context.Context, ownerID, reportID uuid.UUID, patch ReportPatch) error

	// GetReportByID retrieves a report by id.
	GetReportByID(ctx context.Context, ownerID, reportID uuid.UUID) (*models.ValidationReport, error)

	// GetLatestReportForProject returns the most recently created report
	// for a project.
	GetLatestReportForProject(ctx context.Context, ownerID, projectID uuid.UUID) (*models.ValidationReport, error)
}
