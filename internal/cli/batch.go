package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/claimrisk/internal/metrics"
	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/pipeline"
	"github.com/ppiankov/claimrisk/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Assess many claims from a manifest in parallel",
	Long: `Batch runs every claim of a YAML manifest end to end: documents are assessed,
the scripted answers are fed to the interview and one verdict JSON is written per claim.

Manifest format:
  claims:
    - claim_id: CLM-1
      claim_type: Hospitalization
      incident_date: "2024-03-10"
      description: Fell at home
      documents:
        - path: docs/invoice.pdf      # relative to the manifest
          declared_type: invoice
      answers:
        - I slipped on the stairs.

Example:
  claimrisk batch claims.yaml
  claimrisk batch claims.yaml --concurrency 8 --output-dir ./verdicts`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of claims processed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimrisk-verdicts", "output directory for verdicts")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderrf("\n")
	stderrf("═══════════════════════════════════════════════════════════\n")
	stderrf("  claimrisk batch\n")
	stderrf("═══════════════════════════════════════════════════════════\n")
	stderrf("\n")
	stderrf("  Manifest:     %s\n", file)
	stderrf("  Workers:      %d\n", concurrency)
	stderrf("  Output dir:   %s\n", outputDir)
	stderrf("  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		stderrf("  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	stderrf("\n")

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				zap.L().Warn("metrics endpoint stopped", zap.String("addr", cfg.Metrics.Addr), zap.Error(err))
			}
		}()
		stderrf("  Metrics:      http://%s/metrics\n\n", cfg.Metrics.Addr)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, concurrency)
	results, err := processor.ProcessManifest(ctx, file)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	for _, result := range results {
		if result.Error != nil {
			stderrf("✗ %s: %v\n", result.ClaimID, result.Error)
			continue
		}

		path := filepath.Join(outputDir, sanitizeFilename(result.ClaimID)+".json")
		if err := writeJSON(path, result.Verdict); err != nil {
			stderrf("✗ %s: %v\n", result.ClaimID, err)
			continue
		}
		stderrf("✓ %s: fraud score %.1f (%s) in %s\n",
			result.ClaimID, result.Verdict.FraudScore, result.Verdict.RiskLevel, result.Duration.Round(time.Millisecond))
	}

	s := worker.Summarize(results)
	stderrf("\n")
	stderrf("═══════════════════════════════════════════════════════════\n")
	stderrf("  Batch Complete\n")
	stderrf("═══════════════════════════════════════════════════════════\n")
	stderrf("\n")
	stderrf("  Total:     %d claims\n", s.Total)
	stderrf("  Failures:  %d\n", s.Failed)
	for _, level := range []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskLow} {
		stderrf("  %-9s  %d\n", string(level)+":", s.ByRisk[level])
	}
	stderrf("  Output:    %s\n", outputDir)
	stderrf("\n")

	if s.Failed > 0 {
		return fmt.Errorf("%d of %d claims failed", s.Failed, s.Total)
	}
	return nil
}

// sanitizeFilename makes a claim ID safe to use as a file name
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		case ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))

	if s == "" || s == "." || s == ".." {
		s = "claim"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
