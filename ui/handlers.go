package ui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"

	"ideaforge/ai"
	"ideaforge/domain/pillar"
	apperrors "ideaforge/internal/errors"
	"ideaforge/models"
)

type validateRequest struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	PriorReview string `json:"prior_review"`
}

func (a *App) handleStartValidation(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	idea := models.IdeaInput{Title: req.Title, Summary: req.Summary, PriorReview: req.PriorReview}
	reportID, err := a.validation.Start(r.Context(), ownerFrom(r), projectID, idea)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"report_id": reportID,
		"status":    models.ReportQueued,
	})
}

func (a *App) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	report, err := a.validation.Status(r.Context(), ownerFrom(r), reportID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	report, err := a.validation.Latest(r.Context(), ownerFrom(r), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleRerun(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	result, err := a.validation.RunAll(r.Context(), ownerFrom(r), reportID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	// Multi-status on partial failure, not an error response.
	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}

func (a *App) handleRunSection(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	section, ok := pillar.Normalize(chi.URLParam(r, "section"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "unknown section")
		return
	}
	result, err := a.validation.RunSection(r.Context(), ownerFrom(r), reportID, section)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	suggestions, err := a.suggestions.GenerateForReport(r.Context(), ownerFrom(r), reportID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (a *App) handleSuggestionsHTML(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	suggestions, err := a.suggestions.GenerateForReport(r.Context(), ownerFrom(r), reportID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderSuggestionsHTML(suggestions))
}

// renderSuggestionsHTML formats suggestions as a markdown document and
// renders it to an HTML fragment suitable for embedding.
func renderSuggestionsHTML(suggestions []models.Suggestion) []byte {
	var b strings.Builder
	b.WriteString("## Suggested improvements\n\n")
	if len(suggestions) == 0 {
		b.WriteString("All pillars are already strong. Nothing to improve.\n")
	}
	for _, s := range suggestions {
		b.WriteString("### " + string(s.Pillar) + "\n\n")
		b.WriteString("**Issue:** " + s.Issue + "\n\n")
		b.WriteString(s.Rationale + "\n\n")
		b.WriteString("**Suggestion:** " + s.Suggestion + "\n\n")
		b.WriteString("*Estimated impact: " + strconv.Itoa(s.EstimatedImpact) + "*\n\n")
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(b.String()), p, renderer)
}

type improveRequest struct {
	TargetPillar string `json:"target_pillar"`
}

func (a *App) handleImprove(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req improveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var target *pillar.ID
	if req.TargetPillar != "" {
		id, ok := pillar.Normalize(req.TargetPillar)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown target pillar")
			return
		}
		target = &id
	}

	ownerID := ownerFrom(r)
	overview, report, err := a.loadRefinementState(r, ownerID, projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	diag := diagnosticsFor(report, target)
	result, err := a.refinement.Improve(r.Context(), ownerID, projectID, overview, report.Scores, target, diag, models.SourceManual)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type autoImproveRequest struct {
	TargetScore float64 `json:"target_score"`
	MaxLoops    int     `json:"max_loops"`
}

func (a *App) handleAutoImprove(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var req autoImproveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ownerID := ownerFrom(r)
	overview, report, err := a.loadRefinementState(r, ownerID, projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	result, err := a.refinement.AutoImprove(r.Context(), ownerID, projectID, overview, report.Scores, req.TargetScore, req.MaxLoops)
	if err != nil {
		// Prior successful iterations survive a mid-loop failure; surface
		// both the partial result and the halting error.
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"result": result,
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	iterations, summary, err := a.refinement.History(r.Context(), ownerFrom(r), projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"iterations": iterations,
		"summary":    summary,
	})
}

func (a *App) handlePurgeHistory(w http.ResponseWriter, r *http.Request) {
	projectID, err := urlUUID(r, "projectID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := a.refinement.PurgeHistory(r.Context(), ownerFrom(r), projectID); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	reportID, err := urlUUID(r, "reportID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	report, err := a.validation.Status(r.Context(), ownerFrom(r), reportID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	file, err := buildReportWorkbook(report)
	if err != nil {
		writeAppError(w, apperrors.Wrap(err, "failed to build export"))
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="validation-report-`+reportID.String()+`.xlsx"`)
	if err := file.Write(w); err != nil {
		// Headers are already out; nothing more to do than log.
		writeJSONError(w, http.StatusInternalServerError, "failed to stream export")
	}
}

// loadRefinementState gathers the two inputs a refinement call needs: the
// current overview and the latest report's scores. A project that has
// never been refined gets a minimal overview seeded from the report.
func (a *App) loadRefinementState(r *http.Request, ownerID, projectID uuid.UUID) (*models.ProductOverview, *models.ValidationReport, error) {
	report, err := a.validation.Latest(r.Context(), ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}
	if len(report.Scores) == 0 {
		return nil, nil, apperrors.MissingInput("project has no scored report to refine against")
	}

	overview, err := a.overviews.GetOverview(r.Context(), ownerID, projectID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil, err
		}
		overview = &models.ProductOverview{
			RefinedPitch:   report.IdeaTitle,
			ProblemSummary: report.IdeaSummary,
		}
	}
	return overview, report, nil
}

// diagnosticsFor pulls the targeted pillar's evidence out of the report.
func diagnosticsFor(report *models.ValidationReport, target *pillar.ID) ai.PillarDiagnostics {
	id := target
	if id == nil {
		if weakest, ok := pillar.Weakest(report.Scores, pillar.All()); ok {
			id = &weakest
		}
	}
	if id == nil {
		return ai.PillarDiagnostics{}
	}

	diag := ai.PillarDiagnostics{
		Score:     report.Scores[*id],
		Rationale: report.Rationales[*id],
	}
	if section, ok := report.Sections[string(*id)]; ok {
		for _, action := range section.Actions {
			if !action.Completed {
				diag.Weaknesses = append(diag.Weaknesses, action.Text)
			}
		}
	}
	return diag
}

