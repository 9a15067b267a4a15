// ABOUTME: Command-line runner for the recall threshold calibration benchmark
// ABOUTME: Scores labeled note pairs across thresholds and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/harper/recall-tracker/benchmarks/recall"
	"github.com/harper/recall-tracker/internal/app"
	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/logger"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario (exact, paraphrase, partial, drift, blank). If empty, runs all.")
	thresholdList := flag.String("thresholds", "0.70,0.75,0.80,0.85,0.90", "Comma-separated thresholds to sweep")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zlog, err := logger.New("nop")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	thresholds, err := parseThresholds(*thresholdList)
	if err != nil {
		log.Fatalf("Invalid -thresholds: %v", err)
	}

	scenarios := recall.AllScenarios()
	if *scenarioID != "" {
		s, ok := recall.ScenarioByID(*scenarioID)
		if !ok {
			log.Fatalf("Unknown scenario: %s", *scenarioID)
		}
		scenarios = []recall.Scenario{s}
	}

	fmt.Println("========================================")
	fmt.Println("Recall Threshold Calibration")
	fmt.Println("========================================")
	fmt.Printf("Embedder: %s/%s (dim %d)\n\n", cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.VectorDimension)

	embedder, closeCache := app.NewEmbedder(cfg, zlog)
	if closeCache != nil {
		defer closeCache()
	}

	runner := recall.NewRunner(embedder, os.Stdout, *verbose)
	report, err := runner.Run(context.Background(), scenarios, thresholds)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")
	for _, s := range report.Summaries {
		marker := ""
		if s.Threshold == cfg.CompareThreshold {
			marker = "  (configured)"
		}
		fmt.Printf("  %.2f  F1=%.3f  score error=%.1f  passed=%d failed=%d%s\n",
			s.Threshold, s.MeanF1, s.MeanScoreError, s.Passed, s.Failed, marker)
	}
	if report.Best != nil {
		fmt.Printf("\nBest threshold: %.2f\n", report.Best.Threshold)
	}

	if err := recall.ExportResults(report, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
}

func parseThresholds(raw string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("threshold %v outside -1..1", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds given")
	}
	return out, nil
}
