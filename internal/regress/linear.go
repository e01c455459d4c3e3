// Package regress fits the descriptive trend line over national yearly
// totals. It is a side branch of the pipeline: its output feeds the report,
// not the classifier.
package regress

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/reshape"
)

// TrendModel is an ordinary least squares fit of total trade value, in
// millions of USD, against year.
type TrendModel struct {
	Slope     float64
	Intercept float64
	R2        float64
	Years     []int
	Totals    []float64
}

// YearlyTotals sums an aggregated set per year, in ascending year order.
func YearlyTotals(cells []reshape.AggregatedCell) ([]int, []float64) {
	totals := make(map[int]float64)
	for _, cell := range cells {
		totals[cell.Year] += cell.TotalValue
	}

	years := make([]int, 0, len(totals))
	for year := range totals {
		years = append(years, year)
	}
	sort.Ints(years)

	values := make([]float64, len(years))
	for i, year := range years {
		values[i] = totals[year]
	}
	return years, values
}

// FitYearTrend regresses yearly totals on year. At least two distinct years
// are required to fit a line.
func FitYearTrend(cells []reshape.AggregatedCell) (*TrendModel, error) {
	years, totals := YearlyTotals(cells)
	if len(years) < 2 {
		return nil, pipelineerrors.NewEmptyResult(
			"trend regression", "need at least two years, have %d", len(years))
	}

	xs := make([]float64, len(years))
	for i, year := range years {
		xs[i] = float64(year)
	}

	intercept, slope := stat.LinearRegression(xs, totals, nil, false)
	r2 := stat.RSquared(xs, totals, nil, intercept, slope)

	return &TrendModel{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		Years:     years,
		Totals:    totals,
	}, nil
}

// Predict evaluates the fitted line at a year.
func (m *TrendModel) Predict(year int) float64 {
	return m.Intercept + m.Slope*float64(year)
}
