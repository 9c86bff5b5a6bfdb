package ui

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"ideaforge/app"
	apperrors "ideaforge/internal/errors"
	"ideaforge/ports"
)

// App represents the HTTP API application
type App struct {
	router      *chi.Mux
	validation  *app.ValidationService
	suggestions *app.SuggestionService
	refinement  *app.RefinementEngine
	overviews   ports.OverviewRepository
}

// Config holds HTTP application configuration
type Config struct {
	Port string
}

// NewApp creates the API application
func NewApp(validation *app.ValidationService, suggestions *app.SuggestionService, refinement *app.RefinementEngine, overviews ports.OverviewRepository) *App {
	a := &App{
		router:      chi.NewRouter(),
		validation:  validation,
		suggestions: suggestions,
		refinement:  refinement,
		overviews:   overviews,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(requireOwner)
}

func (a *App) setupRoutes() {
	// Validation runs
	a.router.Post("/api/projects/{projectID}/validate", a.handleStartValidation)
	a.router.Get("/api/projects/{projectID}/report", a.handleLatestReport)
	a.router.Get("/api/reports/{reportID}/status", a.handleReportStatus)
	a.router.Post("/api/reports/{reportID}/rerun", a.handleRerun)
	a.router.Post("/api/reports/{reportID}/sections/{section}", a.handleRunSection)

	// Suggestions
	a.router.Post("/api/reports/{reportID}/suggestions", a.handleSuggestions)
	a.router.Get("/api/reports/{reportID}/suggestions/html", a.handleSuggestionsHTML)

	// Refinement
	a.router.Post("/api/projects/{projectID}/improve", a.handleImprove)
	a.router.Post("/api/projects/{projectID}/auto-improve", a.handleAutoImprove)
	a.router.Get("/api/projects/{projectID}/history", a.handleHistory)
	a.router.Delete("/api/projects/{projectID}/history", a.handlePurgeHistory)

	// Export
	a.router.Get("/api/reports/{reportID}/export", a.handleExport)
}

// Router exposes the chi mux for serving and tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(port string) error {
	log.Printf("Starting IdeaForge API server on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}

type ownerKeyType struct{}

var ownerKey ownerKeyType

// requireOwner resolves the owning user from the X-Owner-ID header.
// Authentication itself happens upstream; this boundary only scopes data
// access so cross-owner reads are rejected before reaching the core.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := uuid.Parse(r.Header.Get("X-Owner-ID"))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid X-Owner-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, ownerID)))
	})
}

func ownerFrom(r *http.Request) uuid.UUID {
	owner, _ := r.Context().Value(ownerKey).(uuid.UUID)
	return owner
}

func urlUUID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ui] failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps the error taxonomy onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeMissingInput, apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeAIResponse, apperrors.CodeSchemaValidation:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeExternalService:
		status = http.StatusBadGateway
	}
	writeJSONError(w, status, err.Error())
}
