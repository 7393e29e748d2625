package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrisk/internal/interview"
	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/pipeline"
)

var (
	claimType    string
	incidentDate string
	description  string

	interviewTimeout time.Duration
)

// interviewCmd represents the interview command
var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Assess a claim and run the fraud interview interactively",
	Long: `Interview assesses the claim's documents, asks the claimant three questions
on the terminal (one answer per line on stdin) and prints the fraud verdict.

With llm.provider configured, follow-up questions come from the model; otherwise
a fixed, deterministic set of prompts is used.

Example:
  claimrisk interview --claim-id CLM-1 --claim-type Hospitalization \
    --incident-date 2024-03-10 --doc invoice=bill.pdf --doc medical_report=discharge.pdf`,
	Args: cobra.NoArgs,
	RunE: runInterview,
}

func init() {
	rootCmd.AddCommand(interviewCmd)
	addDocumentFlags(interviewCmd)
	interviewCmd.Flags().StringVar(&claimType, "claim-type", "Other", "claim type (e.g. Hospitalization, Surgery, Emergency)")
	interviewCmd.Flags().StringVar(&incidentDate, "incident-date", "", "incident date as given by the claimant")
	interviewCmd.Flags().StringVar(&description, "description", "", "claimant's description of the incident")
	interviewCmd.Flags().StringVar(&outJSON, "json", "", "write the verdict to this file instead of stdout")
	interviewCmd.Flags().DurationVar(&interviewTimeout, "timeout", 30*time.Minute, "overall timeout")
}

func runInterview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), interviewTimeout)
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
	stderrf("✓ Documents assessed: legitimacy %.1f%%\n\n", assessment.LegitPercentage)

	claim := model.ClaimContext{
		ClaimType:    claimType,
		IncidentDate: incidentDate,
		Description:  description,
	}
	if err := converse(ctx, p, claimID, claim, os.Stdin, os.Stderr); err != nil {
		return err
	}

	v, err := p.Finalize(ctx, claimID)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	stderrf("\n✓ Fraud score %.1f (%s risk, confidence %.2f)\n", v.FraudScore, v.RiskLevel, v.Confidence)
	return writeJSON(outJSON, v)
}

// converse runs the interview over a line-oriented reader and writer
func converse(ctx context.Context, p *pipeline.Pipeline, id string, claim model.ClaimContext, in io.Reader, out io.Writer) error {
	question, err := p.InterviewStart(ctx, id, claim)
	if err != nil {
		return fmt.Errorf("start interview: %w", err)
	}

	scanner := bufio.NewScanner(in)
	prompt := question
	for {
		_, _ = fmt.Fprintf(out, "Q: %s\n> ", prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			return errors.New("interview aborted: input closed before the interview completed")
		}

		res, err := p.InterviewAnswer(ctx, id, scanner.Text())
		if errors.Is(err, interview.ErrEmptyAnswer) {
			_, _ = fmt.Fprintln(out, "Please type an answer.")
			continue
		}
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		if len(res.Indicators) > 0 {
			_, _ = fmt.Fprintf(out, "  [noted: %s]\n", strings.Join(res.Indicators, "; "))
		}
		if res.IsComplete {
			_, _ = fmt.Fprintf(out, "%s\n", res.Message)
			return nil
		}
		prompt = res.Message
	}
}
