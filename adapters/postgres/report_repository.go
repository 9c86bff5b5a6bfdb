package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ideaforge/domain/pillar"
	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// ReportRepositoryImpl implements ReportRepository for PostgreSQL
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// CreateReport persists a new queued report
func (r *ReportRepositoryImpl) CreateReport(ctx context.Context, report *models.ValidationReport) error {
	scoresJSON, _ := json.Marshal(report.Scores)
	rationalesJSON, _ := json.Marshal(report.Rationales)
	sectionsJSON, _ := json.Marshal(report.Sections)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validation_reports (
			id, project_id, owner_id, idea_title, idea_summary, status,
			scores, rationales, sections, overall_confidence, recommendation,
			strong_count, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
		report.ID, report.ProjectID, report.OwnerID, report.IdeaTitle, report.IdeaSummary,
		report.Status, scoresJSON, rationalesJSON, sectionsJSON,
		report.OverallConfidence, report.Recommendation, report.StrongCount, report.Error)
	if err != nil {
		return errors.Wrap(err, "failed to insert report")
	}
	return nil
}

// UpdateReport applies a patch as a single-row write; concurrent writers
// resolve by last-successful-write-wins.
func (r *ReportRepositoryImpl) UpdateReport(ctx context.Context, ownerID, reportID uuid.UUID, patch ports.ReportPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Scores != nil {
		scoresJSON, _ := json.Marshal(patch.Scores)
		add("scores", scoresJSON)
	}
	if patch.Rationales != nil {
		rationalesJSON, _ := json.Marshal(patch.Rationales)
		add("rationales", rationalesJSON)
	}
	if patch.Sections != nil {
		sectionsJSON, _ := json.Marshal(patch.Sections)
		add("sections", sectionsJSON)
	}
	if patch.OverallConfidence != nil {
		add("overall_confidence", *patch.OverallConfidence)
	}
	if patch.Recommendation != nil {
		add("recommendation", *patch.Recommendation)
	}
	if patch.StrongCount != nil {
		add("strong_count", *patch.StrongCount)
	}
	if patch.Error != nil {
		add("error", *patch.Error)
	}
	if patch.Completed {
		sets = append(sets, "completed_at = NOW()")
	}

	query := fmt.Sprintf(`
		UPDATE validation_reports SET %s
		WHERE owner_id = $%d AND id = $%d`, strings.Join(sets, ", "), idx, idx+1)
	args = append(args, ownerID, reportID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update report")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.NotFound("report")
	}
	return nil
}

// GetReportByID retrieves a report scoped by owner
func (r *ReportRepositoryImpl) GetReportByID(ctx context.Context, ownerID, reportID uuid.UUID) (*models.ValidationReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, owner_id, idea_title, idea_summary, status,
		       scores, rationales, sections, overall_confidence, recommendation,
		       strong_count, error, created_at, updated_at, completed_at
		FROM validation_reports
		WHERE owner_id = $1 AND id = $2`, ownerID, reportID)
	return scanReport(row)
}

// GetLatestReportForProject returns the most recently created report
func (r *ReportRepositoryImpl) GetLatestReportForProject(ctx context.Context, ownerID, projectID uuid.UUID) (*models.ValidationReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, owner_id, idea_title, idea_summary, status,
		       scores, rationales, sections, overall_confidence, recommendation,
		       strong_count, error, created_at, updated_at, completed_at
		FROM validation_reports
		WHERE owner_id = $1 AND project_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, ownerID, projectID)
	return scanReport(row)
}

func scanReport(row *sql.Row) (*models.ValidationReport, error) {
	var report models.ValidationReport
	var scoresJSON, rationalesJSON, sectionsJSON []byte
	var recommendation sql.NullString

	err := row.Scan(
		&report.ID, &report.ProjectID, &report.OwnerID, &report.IdeaTitle, &report.IdeaSummary,
		&report.Status, &scoresJSON, &rationalesJSON, &sectionsJSON,
		&report.OverallConfidence, &recommendation, &report.StrongCount,
		&report.Error, &report.CreatedAt, &report.UpdatedAt, &report.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("report")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan report")
	}

	if recommendation.Valid {
		report.Recommendation = pillar.Recommendation(recommendation.String)
	}
	if len(scoresJSON) > 0 {
		json.Unmarshal(scoresJSON, &report.Scores)
	}
	if len(rationalesJSON) > 0 {
		json.Unmarshal(rationalesJSON, &report.Rationales)
	}
	if len(sectionsJSON) > 0 {
		json.Unmarshal(sectionsJSON, &report.Sections)
	}
	return &report, nil
}
