package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimrisk/internal/model"
)

const envPrefix = "CLAIMRISK"

// configFileUsed is the file loadConfig read, if any
var configFileUsed string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claimrisk configuration",
	Long: `Manage claimrisk configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CLAIMRISK_*, e.g. CLAIMRISK_LLM_PROVIDER)
3. Config file (~/.claimrisk/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := configFileUsed; used != "" {
			stderrf("Configuration file: %s\n\n", used)
		} else {
			stderrf("No configuration file found (defaults and environment only)\n\n")
		}

		shown := *cfg
		shown.LLM.APIKey = redact(shown.LLM.APIKey)
		shown.Extract.OCR.MistralAPIKey = redact(shown.Extract.OCR.MistralAPIKey)

		yamlData, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Print(string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long:  `Create a default configuration file at ~/.claimrisk/config.yaml with every option and its default.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath, err := defaultConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'claimrisk config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		var b strings.Builder
		b.WriteString("# claimrisk configuration\n")
		b.WriteString("#\n")
		b.WriteString("# Durations are in nanoseconds here; \"30s\" style strings are accepted too.\n")
		b.WriteString("# API keys are better kept in the environment:\n")
		b.WriteString("#   CLAIMRISK_LLM_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, MISTRAL_API_KEY\n\n")
		b.Write(yamlData)

		if err := os.WriteFile(configPath, []byte(b.String()), 0o600); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		stderrf("✓ Created default configuration: %s\n", configPath)
		stderrf("\nTo view the effective configuration:\n  claimrisk config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "find home directory")
	}
	return filepath.Join(home, ".claimrisk", "config.yaml"), nil
}

// loadConfig merges defaults, the config file and CLAIMRISK_* environment variables
func loadConfig(path string) (*model.Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".claimrisk"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, model.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "read config file")
		}
	}

	configFileUsed = v.ConfigFileUsed()

	var c model.Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "unmarshal config")
	}
	applyProviderEnv(&c)
	return &c, nil
}

// setDefaults registers every key so environment variables can override it
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("extract.max_document_bytes", d.Extract.MaxDocumentBytes)
	v.SetDefault("extract.workers", d.Extract.Workers)
	v.SetDefault("extract.ocr.provider", d.Extract.OCR.Provider)
	v.SetDefault("extract.ocr.tesseract_path", d.Extract.OCR.TesseractPath)
	v.SetDefault("extract.ocr.pdftoppm_path", d.Extract.OCR.PdftoppmPath)
	v.SetDefault("extract.ocr.language", d.Extract.OCR.Language)
	v.SetDefault("extract.ocr.mistral_api_key", d.Extract.OCR.MistralAPIKey)
	v.SetDefault("extract.ocr.mistral_model", d.Extract.OCR.MistralModel)
	v.SetDefault("extract.ocr.timeout", d.Extract.OCR.Timeout)

	v.SetDefault("consistency.date_tolerance_days", d.Consistency.DateToleranceDays)
	v.SetDefault("consistency.amount_deviation_threshold", d.Consistency.AmountDeviationThreshold)

	v.SetDefault("scoring.baseline", d.Scoring.Baseline)
	v.SetDefault("scoring.min_word_count", d.Scoring.MinWordCount)
	v.SetDefault("scoring.sufficient_word_count", d.Scoring.SufficientWordCount)
	v.SetDefault("scoring.model_path", d.Scoring.ModelPath)
	v.SetDefault("scoring.classifier_url", d.Scoring.ClassifierURL)
	v.SetDefault("scoring.classifier_timeout", d.Scoring.ClassifierTimeout)

	v.SetDefault("interview.max_turns", d.Interview.MaxTurns)
	v.SetDefault("interview.timeout", d.Interview.Timeout)
	v.SetDefault("interview.history_window", d.Interview.HistoryWindow)

	v.SetDefault("verdict.indicator_weight", d.Verdict.IndicatorWeight)
	v.SetDefault("verdict.max_interview_penalty", d.Verdict.MaxInterviewPenalty)
	v.SetDefault("verdict.medium_threshold", d.Verdict.MediumThreshold)
	v.SetDefault("verdict.high_threshold", d.Verdict.HighThreshold)
	v.SetDefault("verdict.senior_review_indicator_count", d.Verdict.SeniorReviewIndicatorCount)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	v.SetDefault("llm.burst", d.LLM.Burst)
	v.SetDefault("llm.breaker_failures", d.LLM.BreakerFailures)
	v.SetDefault("llm.breaker_reset", d.LLM.BreakerReset)
	v.SetDefault("llm.http_proxy", d.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", d.LLM.HTTPSProxy)
	v.SetDefault("llm.no_proxy", d.LLM.NoProxy)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// applyProviderEnv fills API keys from the providers' conventional variables
func applyProviderEnv(c *model.Config) {
	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini", "google":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.LLM.BaseURL == "" && strings.EqualFold(c.LLM.Provider, "ollama") {
		c.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if c.Extract.OCR.MistralAPIKey == "" {
		c.Extract.OCR.MistralAPIKey = os.Getenv("MISTRAL_API_KEY")
	}
}

func redact(secret string) string {
	if len(secret) <= 8 {
		if secret == "" {
			return ""
		}
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
