// Package charts renders the report's PNG figures: the national yearly
// export trend and the largest category movers.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/regress"
	"tradepulse/internal/reshape"
)

// YearlyTrend plots total trade value per year together with the fitted
// regression line and saves the figure as a PNG.
func YearlyTrend(model *regress.TrendModel, title, outputPath string) error {
	if len(model.Years) == 0 {
		return pipelineerrors.NewEmptyResult("charts", "trend model has no years to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Trade value (million USD)"

	points := make(plotter.XYs, len(model.Years))
	for i, year := range model.Years {
		points[i].X = float64(year)
		points[i].Y = model.Totals[i]
	}

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return fmt.Errorf("build totals series: %w", err)
	}
	line.Color = color.RGBA{B: 196, A: 255}
	p.Add(line, scatter)
	p.Legend.Add("totals", line)

	fit := plotter.NewFunction(func(x float64) float64 {
		return model.Intercept + model.Slope*x
	})
	fit.Color = color.RGBA{R: 196, A: 255}
	fit.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(fit)
	p.Legend.Add(fmt.Sprintf("fit (R²=%.3f)", model.R2), fit)

	return save(p, outputPath)
}

// mover is one category's change at the chosen year.
type mover struct {
	code   string
	change float64
}

// TopMovers plots the categories with the largest absolute nominal change
// at the given year as a bar chart. Missing cells are filtered out before
// ranking.
func TopMovers(nominal *reshape.Matrix, year, topN int, outputPath string) error {
	var movers []mover
	for _, code := range nominal.Codes() {
		cell := nominal.Cell(code, year)
		if !cell.Valid {
			continue
		}
		movers = append(movers, mover{code: code, change: cell.Value})
	}
	if len(movers) == 0 {
		return pipelineerrors.NewEmptyResult("charts", "no defined changes at year %d", year)
	}

	sort.Slice(movers, func(i, j int) bool {
		return math.Abs(movers[i].change) > math.Abs(movers[j].change)
	})
	if len(movers) > topN {
		movers = movers[:topN]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top movers %d", year)
	p.Y.Label.Text = "Nominal change (million USD)"

	values := make(plotter.Values, len(movers))
	labels := make([]string, len(movers))
	for i, m := range movers {
		values[i] = m.change
		labels[i] = m.code
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = color.RGBA{G: 128, B: 64, A: 255}
	p.Add(bars)
	p.NominalX(labels...)

	return save(p, outputPath)
}

func save(p *plot.Plot, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, outputPath); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
