package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/pipeline"
)

var (
	claimID    string
	docFlags   []string
	outJSON    string
	runTimeout time.Duration
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score the documents of one claim",
	Long: `Assess extracts text and features from every document of a claim, checks the
documents against each other and reports a legitimacy percentage.

Documents are given as type=path pairs. Types are medical_report, prescription,
invoice and other; a path may be an http(s) URL.

Example:
  claimrisk assess --claim-id CLM-1 --doc invoice=bill.pdf --doc medical_report=discharge.pdf
  claimrisk assess --claim-id CLM-1 --doc other=scan.png --json assessment.json`,
	Args: cobra.NoArgs,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)
	addDocumentFlags(assessCmd)
	assessCmd.Flags().StringVar(&outJSON, "json", "", "write the result to this file instead of stdout")
	assessCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall timeout")
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&claimID, "claim-id", "", "claim identifier (required)")
	cmd.Flags().StringArrayVar(&docFlags, "doc", nil, "document as type=path (repeatable)")
	_ = cmd.MarkFlagRequired("claim-id")
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	refs, err := parseDocFlags(docFlags)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	assessment, err := assess(ctx, p, claimID, refs)
	if err != nil {
		return err
	}

	for _, w := range assessment.Warnings {
		stderrf("⚠ %s\n", w)
	}
	stderrf("✓ %s: legitimacy %.1f%% (%s)\n", claimID, assessment.LegitPercentage, assessment.Method)

	return writeJSON(outJSON, assessment)
}

// assess loads the referenced documents and runs the assessment
func assess(ctx context.Context, p *pipeline.Pipeline, id string, refs []model.DocumentRef) (*model.LegitimacyAssessment, error) {
	if len(refs) == 0 {
		return nil, eris.Wrap(model.ErrNoDocuments, "pass at least one --doc type=path")
	}
	docs, err := p.Loader().LoadAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	assessment, err := p.AssessDocuments(ctx, id, docs)
	if err != nil {
		return nil, fmt.Errorf("assess documents: %w", err)
	}
	return assessment, nil
}

// parseDocFlags turns type=path pairs into document references. A bare path is "other".
func parseDocFlags(flags []string) ([]model.DocumentRef, error) {
	refs := make([]model.DocumentRef, 0, len(flags))
	for _, f := range flags {
		declared, path, ok := strings.Cut(f, "=")
		if !ok {
			declared, path = string(model.DeclaredOther), f
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, eris.Errorf("invalid --doc %q: empty path", f)
		}
		refs = append(refs, model.DocumentRef{
			Path:         path,
			DeclaredType: model.ParseDeclaredType(strings.TrimSpace(declared)),
		})
	}
	return refs, nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	stderrf("✓ Wrote %s\n", path)
	return nil
}
