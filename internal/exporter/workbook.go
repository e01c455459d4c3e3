package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"tradepulse/internal/dataset"
	"tradepulse/internal/forest"
	"tradepulse/internal/regress"
	"tradepulse/internal/reshape"
)

// Report bundles everything the workbook renders.
type Report struct {
	RunID         string
	GeneratedAt   time.Time
	Flow          string
	Records       int
	ReferenceYear int
	TargetYear    int

	Legend  []dataset.LegendEntry
	Wide    *reshape.Matrix
	Nominal *reshape.Matrix
	Percent *reshape.Matrix
	Trend   *regress.TrendModel
	Eval    *forest.Evaluation
}

// Workbook sheet names.
const (
	sheetSummary = "Summary"
	sheetLegend  = "Legend"
	sheetWide    = "Wide"
	sheetNominal = "NominalChange"
	sheetPercent = "PercentChange"
	sheetModel   = "Model"
)

// WriteWorkbook renders the report as a multi-sheet Excel workbook.
func (w *Writer) WriteWorkbook(report *Report, name string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetSummary)
	if err := writeSummarySheet(f, report); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}

	if _, err := f.NewSheet(sheetLegend); err != nil {
		return fmt.Errorf("create legend sheet: %w", err)
	}
	writeLegendSheet(f, report.Legend)

	for _, sheet := range []struct {
		name   string
		matrix *reshape.Matrix
	}{
		{sheetWide, report.Wide},
		{sheetNominal, report.Nominal},
		{sheetPercent, report.Percent},
	} {
		if sheet.matrix == nil {
			continue
		}
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create %s sheet: %w", sheet.name, err)
		}
		writeMatrixSheet(f, sheet.name, sheet.matrix)
	}

	if report.Eval != nil {
		if _, err := f.NewSheet(sheetModel); err != nil {
			return fmt.Errorf("create model sheet: %w", err)
		}
		writeModelSheet(f, report.Eval)
	}

	fullPath := filepath.Join(w.outputDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("wrote workbook", slog.String("file", fullPath))
	return nil
}

func writeSummarySheet(f *excelize.File, report *Report) error {
	rows := [][]interface{}{
		{"Run ID", report.RunID},
		{"Generated", report.GeneratedAt.Format(time.RFC3339)},
		{"Flow", report.Flow},
		{"Input records", report.Records},
		{"Reference year", report.ReferenceYear},
		{"Target year", report.TargetYear},
	}

	if report.Wide != nil {
		rows = append(rows,
			[]interface{}{"Categories", report.Wide.NumRows()},
			[]interface{}{"Years", report.Wide.NumCols()},
		)

		var defined []float64
		for _, code := range report.Wide.Codes() {
			for _, cell := range report.Wide.Row(code) {
				if cell.Valid {
					defined = append(defined, cell.Value)
				}
			}
		}
		if len(defined) > 0 {
			mean, std := stat.MeanStdDev(defined, nil)
			rows = append(rows,
				[]interface{}{"Mean cell value (M USD)", mean},
				[]interface{}{"Stddev cell value (M USD)", std},
			)
		}
	}

	if report.Trend != nil {
		rows = append(rows,
			[]interface{}{"Trend slope (M USD/year)", report.Trend.Slope},
			[]interface{}{"Trend intercept", report.Trend.Intercept},
			[]interface{}{"Trend R2", report.Trend.R2},
		)
	}
	if report.Eval != nil {
		rows = append(rows,
			[]interface{}{"Test accuracy", report.Eval.Accuracy},
			[]interface{}{"Test rows scored", report.Eval.Confusion.Total()},
			[]interface{}{"Test rows skipped", report.Eval.Skipped},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}
	f.SetColWidth(sheetSummary, "A", "A", 28)
	f.SetColWidth(sheetSummary, "B", "B", 40)
	return nil
}

func writeLegendSheet(f *excelize.File, entries []dataset.LegendEntry) {
	f.SetSheetRow(sheetLegend, "A1", &[]interface{}{"Code", "First seen category"})
	for i, entry := range entries {
		row := []interface{}{entry.Code, entry.Category}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheetLegend, cell, &row)
	}
	f.SetColWidth(sheetLegend, "B", "B", 48)
}

func writeMatrixSheet(f *excelize.File, sheet string, m *reshape.Matrix) {
	header := []interface{}{"Code"}
	for _, year := range m.Years() {
		header = append(header, year)
	}
	f.SetSheetRow(sheet, "A1", &header)

	for i, code := range m.Codes() {
		row := []interface{}{code}
		for _, cell := range m.Row(code) {
			if cell.Valid {
				row = append(row, cell.Value)
			} else {
				// Blank cell keeps missing distinguishable from zero.
				row = append(row, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &row)
	}
}

func writeModelSheet(f *excelize.File, eval *forest.Evaluation) {
	f.SetSheetRow(sheetModel, "A1", &[]interface{}{"Confusion matrix (predicted \\ observed)"})

	header := []interface{}{""}
	for _, observed := range forest.Directions() {
		header = append(header, string(observed))
	}
	f.SetSheetRow(sheetModel, "A2", &header)

	for i, predicted := range forest.Directions() {
		row := []interface{}{string(predicted)}
		for _, observed := range forest.Directions() {
			row = append(row, eval.Confusion.Count(predicted, observed))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		f.SetSheetRow(sheetModel, cell, &row)
	}

	f.SetSheetRow(sheetModel, "A6", &[]interface{}{"Accuracy", eval.Accuracy})

	f.SetSheetRow(sheetModel, "A8", &[]interface{}{"Code", "Predicted", "Observed"})
	for i, prediction := range eval.Predictions {
		row := []interface{}{prediction.Code, string(prediction.Predicted), string(prediction.Observed)}
		cell, _ := excelize.CoordinatesToCellName(1, i+9)
		f.SetSheetRow(sheetModel, cell, &row)
	}
}
