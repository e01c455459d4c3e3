package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	pipelineerrors "tradepulse/internal/errors"
)

// Column names the loader recognizes in the input header.
const (
	colYear     = "year"
	colCountry  = "country_or_area"
	colCategory = "category"
	colFlow     = "flow"
	colTradeUSD = "trade_usd"
	colWeightKG = "weight_kg"
)

var requiredColumns = []string{colYear, colCountry, colCategory, colFlow, colTradeUSD}

// LoadCSV reads the commodity trade table from a delimited file. It returns
// the records with category codes already derived, plus the legend built
// while deriving them.
func LoadCSV(path string, logger *slog.Logger) ([]TradeRecord, *Legend, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	return Load(file, logger)
}

// Load reads the commodity trade table from r. Required columns are year,
// country_or_area, category, flow and trade_usd; weight_kg is optional and
// blank or unparsable weights stay missing. A missing required column or an
// unparsable required field is fatal before any computation proceeds.
func Load(r io.Reader, logger *slog.Logger) ([]TradeRecord, *Legend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, pipelineerrors.Wrap(
			pipelineerrors.NewMalformedInput("load", "cannot read header"), err)
	}

	columns := normalizeHeader(header)
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, nil, pipelineerrors.NewMalformedInput(
				"load", "required column %q is missing", name)
		}
	}
	_, hasWeightColumn := columns[colWeightKG]

	legend := NewLegend()
	var records []TradeRecord
	missing := loadCounters{}
	row := 1

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, pipelineerrors.Wrap(
				pipelineerrors.NewMalformedInput("load", "row %d: cannot read record", row+1), err)
		}
		row++

		record, err := parseRecord(fields, columns, legend, hasWeightColumn, row, &missing)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, nil, pipelineerrors.NewEmptyResult("load", "input file has no data rows")
	}

	logger.Info("loaded trade records",
		slog.Int("records", len(records)),
		slog.Int("distinct_codes", len(legend.Entries())),
		slog.Int("missing_values", missing.values),
		slog.Int("missing_weights", missing.weights))

	return records, legend, nil
}

// loadCounters tracks the explicit missing-value path: blank measures are
// reported, not silently coerced during arithmetic.
type loadCounters struct {
	values  int
	weights int
}

func parseRecord(fields []string, columns map[string]int, legend *Legend, hasWeightColumn bool, row int, missing *loadCounters) (TradeRecord, error) {
	yearText := getCell(fields, columns, colYear)
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return TradeRecord{}, pipelineerrors.NewMalformedInput(
			"load", "row %d: column %q value %q is not an integer", row, colYear, yearText)
	}

	flowText := getCell(fields, columns, colFlow)
	flow, err := ParseFlow(flowText)
	if err != nil {
		return TradeRecord{}, pipelineerrors.NewMalformedInput(
			"load", "row %d: column %q value %q is not a recognized flow", row, colFlow, flowText)
	}

	// A blank measure is a missing value that sums as zero downstream; a
	// non-blank cell that does not parse is malformed input.
	tradeUSD := 0.0
	if valueText := getCell(fields, columns, colTradeUSD); valueText == "" {
		missing.values++
	} else {
		tradeUSD, err = parseNumeric(valueText)
		if err != nil {
			return TradeRecord{}, pipelineerrors.NewMalformedInput(
				"load", "row %d: column %q value %q is not numeric", row, colTradeUSD, valueText)
		}
	}

	category := getCell(fields, columns, colCategory)

	record := TradeRecord{
		Year:         year,
		Country:      getCell(fields, columns, colCountry),
		Category:     category,
		CategoryCode: legend.Code(category),
		Flow:         flow,
		TradeUSD:     tradeUSD,
	}

	// weight_kg is optional: a blank or unparsable cell is a missing
	// value, counted and reported, never an error and never zero.
	if hasWeightColumn {
		weightText := getCell(fields, columns, colWeightKG)
		if weight, err := parseNumeric(weightText); err == nil {
			record.WeightKG = weight
			record.HasWeight = true
		} else {
			missing.weights++
		}
	} else {
		missing.weights++
	}

	return record, nil
}

// parseNumeric coerces a possibly text-formatted numeric field, tolerating
// thousands separators as they appear in exported trade tables.
func parseNumeric(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(value, 64)
}

func normalizeHeader(header []string) map[string]int {
	result := make(map[string]int, len(header))
	for i, value := range header {
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		result[key] = i
	}
	return result
}

func getCell(record []string, header map[string]int, key string) string {
	index, ok := header[key]
	if !ok || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
