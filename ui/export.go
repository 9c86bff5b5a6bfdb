package ui

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"ideaforge/domain/pillar"
	"ideaforge/models"
)

const (
	summarySheet  = "Summary"
	sectionsSheet = "Sections"
	actionsSheet  = "Actions"
)

// buildReportWorkbook renders a validation report as a spreadsheet with a
// summary sheet, a per-pillar score sheet, and an action item sheet.
func buildReportWorkbook(report *models.ValidationReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, report); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSectionsSheet(f, report); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeActionsSheet(f, report); err != nil {
		f.Close()
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func writeSummarySheet(f *excelize.File, report *models.ValidationReport) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Idea", report.IdeaTitle},
		{"Summary", report.IdeaSummary},
		{"Status", string(report.Status)},
		{"Overall confidence", report.OverallConfidence},
		{"Recommendation", string(report.Recommendation)},
		{"Strong pillars", report.StrongCount},
		{"Created", report.CreatedAt.Format("2006-01-02 15:04")},
	}
	if report.CompletedAt != nil {
		rows = append(rows, []interface{}{"Completed", report.CompletedAt.Format("2006-01-02 15:04")})
	}
	if report.Error != "" {
		rows = append(rows, []interface{}{"Error", report.Error})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSectionsSheet(f *excelize.File, report *models.ValidationReport) error {
	if _, err := f.NewSheet(sectionsSheet); err != nil {
		return err
	}
	header := []interface{}{"Pillar", "Weight", "Score", "Rationale"}
	if err := f.SetSheetRow(sectionsSheet, "A1", &header); err != nil {
		return err
	}

	weights := pillar.DefaultWeights()
	rowNum := 2
	for _, id := range pillar.All() {
		score, ok := report.Scores[id]
		if !ok {
			continue
		}
		row := []interface{}{string(id), weights[id], score, report.Rationales[id]}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sectionsSheet, cell, &row); err != nil {
			return err
		}
		rowNum++
	}
	return nil
}

func writeActionsSheet(f *excelize.File, report *models.ValidationReport) error {
	if _, err := f.NewSheet(actionsSheet); err != nil {
		return err
	}
	header := []interface{}{"Pillar", "Action", "Done"}
	if err := f.SetSheetRow(actionsSheet, "A1", &header); err != nil {
		return err
	}

	rowNum := 2
	for _, id := range pillar.All() {
		section, ok := report.Sections[string(id)]
		if !ok {
			continue
		}
		for _, action := range section.Actions {
			done := "no"
			if action.Completed {
				done = "yes"
			}
			row := []interface{}{string(id), action.Text, done}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(actionsSheet, cell, &row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}
