// Package exporter writes the pipeline's artifacts: CSV files for the
// legend, the matrices and the confusion matrix, and a multi-sheet Excel
// workbook for the full report.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"tradepulse/internal/dataset"
	"tradepulse/internal/forest"
	"tradepulse/internal/reshape"
)

// Writer writes artifacts under a fixed output directory.
type Writer struct {
	outputDir string
	logger    *slog.Logger
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outputDir: outputDir, logger: logger}
}

// writeCSV writes one CSV file under the output directory.
func (w *Writer) writeCSV(name string, header []string, records [][]string) error {
	fullPath := filepath.Join(w.outputDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write %s record: %w", name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}

	w.logger.Info("wrote CSV artifact",
		slog.String("file", fullPath),
		slog.Int("records", len(records)))
	return nil
}

// WriteLegend exports the category code legend.
func (w *Writer) WriteLegend(entries []dataset.LegendEntry, name string) error {
	records := make([][]string, len(entries))
	for i, entry := range entries {
		records[i] = []string{entry.Code, entry.Category}
	}
	return w.writeCSV(name, []string{"category_code", "first_seen_category"}, records)
}

// WriteMatrix exports a matrix with codes as rows and years as columns.
// Missing cells render as empty fields, preserving the distinction from
// zero in the artifact.
func (w *Writer) WriteMatrix(m *reshape.Matrix, name string) error {
	header := make([]string, 0, m.NumCols()+1)
	header = append(header, "category_code")
	for _, year := range m.Years() {
		header = append(header, strconv.Itoa(year))
	}

	records := make([][]string, 0, m.NumRows())
	for _, code := range m.Codes() {
		record := make([]string, 0, m.NumCols()+1)
		record = append(record, code)
		for _, cell := range m.Row(code) {
			if cell.Valid {
				record = append(record, strconv.FormatFloat(cell.Value, 'f', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}
	return w.writeCSV(name, header, records)
}

// WriteConfusion exports the 2x2 confusion matrix.
func (w *Writer) WriteConfusion(cm *forest.ConfusionMatrix, name string) error {
	header := []string{"predicted\\observed"}
	for _, observed := range forest.Directions() {
		header = append(header, string(observed))
	}

	var records [][]string
	for _, predicted := range forest.Directions() {
		record := []string{string(predicted)}
		for _, observed := range forest.Directions() {
			record = append(record, strconv.Itoa(cm.Count(predicted, observed)))
		}
		records = append(records, record)
	}
	return w.writeCSV(name, header, records)
}
