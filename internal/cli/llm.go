package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrisk/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the interview language model",
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured provider is reachable",
	Long: `Check builds the configured completer (llm.provider) and asks the provider
whether the model is available. Without a provider the interview uses its
built-in prompts and nothing is checked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		completer, err := llm.NewCompleter(cfg.LLM)
		if err != nil {
			return fmt.Errorf("llm provider: %w", err)
		}
		if completer == nil {
			stderrf("No LLM provider configured; the interview uses built-in prompts.\n")
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if !completer.IsAvailable(ctx) {
			return fmt.Errorf("provider %s is not available", completer.Name())
		}
		stderrf("✓ %s is available\n", completer.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.AddCommand(llmCheckCmd)
}
