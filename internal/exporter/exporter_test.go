package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tradepulse/internal/dataset"
	"tradepulse/internal/forest"
	"tradepulse/internal/labeling"
	"tradepulse/internal/regress"
	"tradepulse/internal/reshape"
)

func testMatrix(t *testing.T) *reshape.Matrix {
	t.Helper()
	matrix, err := reshape.Pivot([]reshape.AggregatedCell{
		{Year: 2010, Code: "01", TotalValue: 1.0},
		{Year: 2011, Code: "01", TotalValue: 1.5},
		{Year: 2010, Code: "02", TotalValue: 2.0},
	})
	require.NoError(t, err)
	return matrix
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteLegend(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, nil)

	entries := []dataset.LegendEntry{
		{Code: "01", Category: "01_live_animals"},
		{Code: "02", Category: "02_meat"},
	}
	require.NoError(t, writer.WriteLegend(entries, "legend.csv"))

	records := readCSV(t, filepath.Join(dir, "legend.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"category_code", "first_seen_category"}, records[0])
	assert.Equal(t, []string{"01", "01_live_animals"}, records[1])
}

func TestWriteMatrix_MissingCellsEmpty(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, nil)

	require.NoError(t, writer.WriteMatrix(testMatrix(t), "wide.csv"))

	records := readCSV(t, filepath.Join(dir, "wide.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"category_code", "2010", "2011"}, records[0])
	assert.Equal(t, []string{"01", "1", "1.5"}, records[1])

	// "02" has no 2011 value; the field is empty, not zero.
	assert.Equal(t, []string{"02", "2", ""}, records[2])
}

func TestWriteConfusion(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, nil)

	cm := forest.NewConfusionMatrix()
	cm.Add(labeling.DirectionUp, labeling.DirectionUp)
	cm.Add(labeling.DirectionUp, labeling.DirectionDown)
	cm.Add(labeling.DirectionDown, labeling.DirectionDown)

	require.NoError(t, writer.WriteConfusion(cm, "confusion.csv"))

	records := readCSV(t, filepath.Join(dir, "confusion.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{`predicted\observed`, "down", "up"}, records[0])
	assert.Equal(t, []string{"down", "1", "0"}, records[1])
	assert.Equal(t, []string{"up", "1", "1"}, records[2])
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, nil)

	wide := testMatrix(t)
	cm := forest.NewConfusionMatrix()
	cm.Add(labeling.DirectionUp, labeling.DirectionUp)

	report := &Report{
		RunID:         "run-1",
		GeneratedAt:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Flow:          "Export",
		Records:       3,
		ReferenceYear: 2010,
		TargetYear:    2011,
		Legend: []dataset.LegendEntry{
			{Code: "01", Category: "01_live_animals"},
		},
		Wide: wide,
		Trend: &regress.TrendModel{
			Slope: 0.5, Intercept: -1000, R2: 1,
			Years: []int{2010, 2011}, Totals: []float64{3.0, 1.5},
		},
		Eval: &forest.Evaluation{
			Confusion: cm,
			Accuracy:  1.0,
			Predictions: []forest.Prediction{
				{Code: "01", Predicted: labeling.DirectionUp, Observed: labeling.DirectionUp},
			},
		},
	}

	require.NoError(t, writer.WriteWorkbook(report, "report.xlsx"))

	f, err := excelize.OpenFile(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Legend")
	assert.Contains(t, sheets, "Wide")
	assert.Contains(t, sheets, "Model")

	runID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)

	code, err := f.GetCellValue("Wide", "A2")
	require.NoError(t, err)
	assert.Equal(t, "01", code)
}
