package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ideaforge/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createValidationReportsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create validation_reports table")
	}
	if err := r.createProductOverviewsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create product_overviews table")
	}
	if err := r.createImprovementIterationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create improvement_iterations table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createValidationReportsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS validation_reports (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL,
			owner_id UUID NOT NULL,
			idea_title TEXT NOT NULL DEFAULT '',
			idea_summary TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'queued',
			scores JSONB,
			rationales JSONB,
			sections JSONB,
			overall_confidence INTEGER NOT NULL DEFAULT 0,
			recommendation VARCHAR(20),
			strong_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			completed_at TIMESTAMP WITH TIME ZONE
		)
	`)
	return err
}

func (r *MigrationRunner) createProductOverviewsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS product_overviews (
			project_id UUID NOT NULL,
			owner_id UUID NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (project_id, owner_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createImprovementIterationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS improvement_iterations (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL,
			owner_id UUID NOT NULL,
			pillar_impacted VARCHAR(20) NOT NULL,
			score_delta DOUBLE PRECISION NOT NULL DEFAULT 0,
			differences JSONB,
			before_text TEXT NOT NULL DEFAULT '',
			after_text TEXT NOT NULL DEFAULT '',
			source VARCHAR(10) NOT NULL DEFAULT 'manual',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_validation_reports_project ON validation_reports(owner_id, project_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_validation_reports_status ON validation_reports(status)`,
		`CREATE INDEX IF NOT EXISTS idx_improvement_iterations_project ON improvement_iterations(owner_id, project_id, created_at)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
