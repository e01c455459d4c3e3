package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"tradepulse/internal/config"
	pipelineerrors "tradepulse/internal/errors"
	"tradepulse/internal/infrastructure"
	"tradepulse/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to YAML configuration file (optional)")
	inputPath := flag.String("input", "", "override input CSV path")
	outputDir := flag.String("out", "", "override output directory for report artifacts")
	trace := flag.Bool("trace", false, "emit stage spans to stdout")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger, closeLogger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Logger initialization failed", "error", err)
		os.Exit(1)
	}
	defer closeLogger()
	slog.SetDefault(logger)

	runID := infrastructure.GenerateRunID()
	ctx := infrastructure.WithRunID(context.Background(), runID)

	tracing, err := infrastructure.InitializeTracing(*trace, logger)
	if err != nil {
		logger.Error("Tracing initialization failed", "error", err)
		os.Exit(1)
	}
	defer tracing.Shutdown(context.Background())

	logger.InfoContext(ctx, "Starting trade report",
		slog.String("input", cfg.Input.Path),
		slog.String("flow", cfg.Input.Flow),
		slog.Int("reference_year", cfg.Analysis.ReferenceYear),
		slog.Int("target_year", cfg.Analysis.TargetYear))

	start := time.Now()
	report, err := pipeline.New(cfg, logger, tracing).Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline failed", "error", err)
		var perr *pipelineerrors.PipelineError
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "trade-report: %s: %s\n", perr.Code, perr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "trade-report: %v\n", err)
		}
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Report complete",
		slog.Int("records", report.Records),
		slog.Int("categories", len(report.Legend)),
		slog.Float64("accuracy", report.Eval.Accuracy),
		slog.String("output_dir", cfg.Output.Dir),
		slog.Duration("elapsed", time.Since(start)))

	fmt.Printf("Report written to %s (accuracy %.2f on %d test rows)\n",
		cfg.Output.Dir, report.Eval.Accuracy, report.Eval.Confusion.Total())
}
