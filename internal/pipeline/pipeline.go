// Package pipeline composes the analysis stages into one batch run: load,
// aggregate, pivot, difference, label, split, classify, export. Each stage
// consumes an immutable snapshot of its predecessor's output; a failing
// stage halts the run with an error naming the stage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"tradepulse/internal/charts"
	"tradepulse/internal/config"
	"tradepulse/internal/dataset"
	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/exporter"
	"tradepulse/internal/forest"
	"tradepulse/internal/infrastructure"
	"tradepulse/internal/labeling"
	"tradepulse/internal/regress"
	"tradepulse/internal/reshape"
)

// Artifact file names written under the output directory.
const (
	legendFile    = "category_legend.csv"
	wideFile      = "wide_matrix.csv"
	nominalFile   = "nominal_change.csv"
	percentFile   = "percent_change.csv"
	confusionFile = "confusion_matrix.csv"
	trendChart    = "yearly_trend.png"
	moversChart   = "top_movers.png"
)

// Pipeline runs the full analysis.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *infrastructure.Tracing
}

// New creates a pipeline from validated configuration.
func New(cfg *config.Config, logger *slog.Logger, tracing *infrastructure.Tracing) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger, tracing: tracing}
}

// Run executes every stage and writes the artifacts. The returned report
// mirrors what was exported.
func (p *Pipeline) Run(ctx context.Context) (*exporter.Report, error) {
	flow, err := dataset.ParseFlow(p.cfg.Input.Flow)
	if err != nil {
		return nil, pipelineerrors.NewInvalidConfig("flow filter: %v", err)
	}

	report := &exporter.Report{
		RunID:         infrastructure.RunIDFromContext(ctx),
		GeneratedAt:   time.Now().UTC(),
		Flow:          string(flow),
		ReferenceYear: p.cfg.Analysis.ReferenceYear,
		TargetYear:    p.cfg.Analysis.TargetYear,
	}

	var (
		records []dataset.TradeRecord
		legend  *dataset.Legend
		cells   []reshape.AggregatedCell
		wide    *reshape.Matrix
		nominal *reshape.Matrix
		percent *reshape.Matrix
		trend   *regress.TrendModel
		eval    *forest.Evaluation
	)

	err = p.tracing.Stage(ctx, "load", func(ctx context.Context) error {
		records, legend, err = dataset.LoadCSV(p.cfg.Input.Path, p.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	report.Records = len(records)
	report.Legend = legend.Entries()

	err = p.tracing.Stage(ctx, "aggregate", func(ctx context.Context) error {
		cells = reshape.Aggregate(records, flow, p.cfg.Input.DropUncategorized)
		if len(cells) == 0 {
			return pipelineerrors.NewEmptyResult(
				"aggregate", "no records matched flow=%s", flow)
		}
		p.logger.InfoContext(ctx, "aggregated records",
			slog.Int("groups", len(cells)),
			slog.String("flow", string(flow)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.tracing.Stage(ctx, "reshape", func(ctx context.Context) error {
		wide, err = reshape.Pivot(cells)
		if err != nil {
			return err
		}
		nominal, percent, err = reshape.Changes(wide)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "built matrices",
			slog.Int("categories", wide.NumRows()),
			slog.Int("years", wide.NumCols()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Wide = wide
	report.Nominal = nominal
	report.Percent = percent

	err = p.tracing.Stage(ctx, "trend", func(ctx context.Context) error {
		trend, err = regress.FitYearTrend(cells)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "fitted yearly trend",
			slog.Float64("slope", trend.Slope),
			slog.Float64("r2", trend.R2))
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Trend = trend

	err = p.tracing.Stage(ctx, "classify", func(ctx context.Context) error {
		eval, err = p.classify(ctx, wide, nominal)
		return err
	})
	if err != nil {
		return nil, err
	}
	report.Eval = eval

	if err := p.tracing.Stage(ctx, "export", func(ctx context.Context) error {
		return p.export(ctx, report)
	}); err != nil {
		return nil, err
	}

	return report, nil
}

// classify labels categories from the wide matrix, joins features from the
// nominal change matrix, splits, trains and scores.
func (p *Pipeline) classify(ctx context.Context, wide, nominal *reshape.Matrix) (*forest.Evaluation, error) {
	labels := labeling.LabelDirections(wide, p.cfg.Analysis.ReferenceYear, p.cfg.Analysis.TargetYear)
	if len(labels) == 0 {
		return nil, pipelineerrors.NewEmptyResult(
			"label", "no category has totals for both %d and %d",
			p.cfg.Analysis.ReferenceYear, p.cfg.Analysis.TargetYear)
	}

	featureYears := labeling.FeatureYears(nominal.Years(), p.cfg.Analysis.TargetYear, p.cfg.Analysis.DropRecent)
	rows, err := labeling.BuildRows(nominal, labels, featureYears)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "built labeled rows",
		slog.Int("rows", len(rows)),
		slog.Int("features", len(featureYears)))

	split, err := labeling.SplitStratified(rows, p.cfg.Model.TestFraction, p.cfg.Model.Seed)
	if err != nil {
		return nil, err
	}

	clf := forest.NewClassifier(forest.Options{
		NumTrees:      p.cfg.Model.NumTrees,
		MaxDepth:      p.cfg.Model.MaxDepth,
		MinLeafSize:   p.cfg.Model.MinLeafSize,
		Seed:          p.cfg.Model.Seed,
		MissingPolicy: forest.MissingPolicy(p.cfg.Model.MissingPolicy),
	}, p.logger)

	if err := clf.Fit(split.Train); err != nil {
		return nil, err
	}
	eval, err := clf.Evaluate(split.Test)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "scored test set",
		slog.Float64("accuracy", eval.Accuracy),
		slog.Int("scored", eval.Confusion.Total()),
		slog.Int("skipped", eval.Skipped))
	return eval, nil
}

// export writes every artifact for the run.
func (p *Pipeline) export(ctx context.Context, report *exporter.Report) error {
	writer := exporter.NewWriter(p.cfg.Output.Dir, p.logger)

	if err := writer.WriteLegend(report.Legend, legendFile); err != nil {
		return fmt.Errorf("export legend: %w", err)
	}
	if err := writer.WriteMatrix(report.Wide, wideFile); err != nil {
		return fmt.Errorf("export wide matrix: %w", err)
	}
	if err := writer.WriteMatrix(report.Nominal, nominalFile); err != nil {
		return fmt.Errorf("export nominal change: %w", err)
	}
	if err := writer.WriteMatrix(report.Percent, percentFile); err != nil {
		return fmt.Errorf("export percent change: %w", err)
	}
	if err := writer.WriteConfusion(report.Eval.Confusion, confusionFile); err != nil {
		return fmt.Errorf("export confusion matrix: %w", err)
	}
	if err := writer.WriteWorkbook(report, p.cfg.Output.WorkbookName); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}

	if p.cfg.Output.Charts {
		trendPath := chartPath(p.cfg.Output.Dir, trendChart)
		if err := charts.YearlyTrend(report.Trend, fmt.Sprintf("%s totals by year", report.Flow), trendPath); err != nil {
			return fmt.Errorf("render trend chart: %w", err)
		}
		moversPath := chartPath(p.cfg.Output.Dir, moversChart)
		if err := charts.TopMovers(report.Nominal, report.TargetYear, p.cfg.Output.TopMovers, moversPath); err != nil {
			return fmt.Errorf("render movers chart: %w", err)
		}
	}

	p.logger.InfoContext(ctx, "exported artifacts", slog.String("dir", p.cfg.Output.Dir))
	return nil
}

func chartPath(dir, name string) string {
	return filepath.Join(dir, name)
}
