package container

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"ideaforge/adapters/llm"
	"ideaforge/adapters/postgres"
	"ideaforge/ai"
	"ideaforge/app"
	"ideaforge/internal/config"
	"ideaforge/internal/runner"
	"ideaforge/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Supervisor *runner.Supervisor

	// Repositories (data access layer)
	ReportRepo    ports.ReportRepository
	OverviewRepo  ports.OverviewRepository
	IterationRepo ports.IterationRepository

	// AI components
	Generator           ports.TextGenerator
	SectionEvaluator    *ai.SectionEvaluator
	SuggestionGenerator *ai.SuggestionGenerator
	RefinementAgent     *ai.RefinementAgent

	// Services
	ValidationService *app.ValidationService
	SuggestionService *app.SuggestionService
	RefinementEngine  *app.RefinementEngine
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.ReportRepo = postgres.NewReportRepository(db)
	c.OverviewRepo = postgres.NewOverviewRepository(db)
	c.IterationRepo = postgres.NewIterationRepository(db)

	if err := c.initAI(); err != nil {
		return fmt.Errorf("failed to initialize AI components: %w", err)
	}
	c.initServices()

	log.Printf("Container initialized successfully with database connection")
	return nil
}

func (c *Container) initAI() error {
	generator, err := llm.NewOpenAIClient(&c.Config.AI)
	if err != nil {
		return err
	}
	c.Generator = generator
	c.SectionEvaluator = ai.NewSectionEvaluator(generator, &c.Config.AI)
	c.SuggestionGenerator = ai.NewSuggestionGenerator(generator, &c.Config.AI)
	c.RefinementAgent = ai.NewRefinementAgent(generator, &c.Config.AI)
	return nil
}

func (c *Container) initServices() {
	c.Supervisor = runner.NewSupervisor(c.Config.Run.Timeout)
	c.ValidationService = app.NewValidationService(c.ReportRepo, c.SectionEvaluator, c.Supervisor)
	c.SuggestionService = app.NewSuggestionService(c.ReportRepo, c.SuggestionGenerator)
	c.RefinementEngine = app.NewRefinementEngine(c.OverviewRepo, c.IterationRepo, c.RefinementAgent)
}

// Close releases container resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
