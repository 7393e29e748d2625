package model

import "time"

// Config is the complete claimrisk configuration
type Config struct {
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Consistency ConsistencyConfig `yaml:"consistency" mapstructure:"consistency"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Interview   InterviewConfig   `yaml:"interview" mapstructure:"interview"`
	Verdict     VerdictConfig     `yaml:"verdict" mapstructure:"verdict"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// ExtractConfig controls document text extraction
type ExtractConfig struct {
	MaxDocumentBytes int64     `yaml:"max_document_bytes" mapstructure:"max_document_bytes"`
	Workers          int       `yaml:"workers" mapstructure:"workers"` // Parallel extractions per claim
	OCR              OCRConfig `yaml:"ocr" mapstructure:"ocr"`
}

// OCRConfig selects and tunes the optical recognition engine
type OCRConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // tesseract, mistral, none
	TesseractPath string        `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	PdftoppmPath  string        `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	Language      string        `yaml:"language" mapstructure:"language"`
	MistralAPIKey string        `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string        `yaml:"mistral_model" mapstructure:"mistral_model"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ConsistencyConfig holds cross-document tolerances (both boundary-inclusive)
type ConsistencyConfig struct {
	DateToleranceDays        int     `yaml:"date_tolerance_days" mapstructure:"date_tolerance_days"`
	AmountDeviationThreshold float64 `yaml:"amount_deviation_threshold" mapstructure:"amount_deviation_threshold"`
}

// ScoringConfig controls the legitimacy scorer
type ScoringConfig struct {
	Baseline            float64       `yaml:"baseline" mapstructure:"baseline"`
	MinWordCount        int           `yaml:"min_word_count" mapstructure:"min_word_count"`
	SufficientWordCount int           `yaml:"sufficient_word_count" mapstructure:"sufficient_word_count"`
	ModelPath           string        `yaml:"model_path" mapstructure:"model_path"`         // Local logistic model (JSON)
	ClassifierURL       string        `yaml:"classifier_url" mapstructure:"classifier_url"` // Remote inference service
	ClassifierTimeout   time.Duration `yaml:"classifier_timeout" mapstructure:"classifier_timeout"`
}

// InterviewConfig bounds the fraud interview
type InterviewConfig struct {
	MaxTurns      int           `yaml:"max_turns" mapstructure:"max_turns"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per collaborator call
	HistoryWindow int           `yaml:"history_window" mapstructure:"history_window"`
}

// VerdictConfig holds aggregation weights and bands
type VerdictConfig struct {
	IndicatorWeight            float64 `yaml:"indicator_weight" mapstructure:"indicator_weight"`
	MaxInterviewPenalty        float64 `yaml:"max_interview_penalty" mapstructure:"max_interview_penalty"`
	MediumThreshold            float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`
	HighThreshold              float64 `yaml:"high_threshold" mapstructure:"high_threshold"`
	SeniorReviewIndicatorCount int     `yaml:"senior_review_indicator_count" mapstructure:"senior_review_indicator_count"`
}

// LLMConfig configures the text-completion collaborator
type LLMConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini, "" (disabled)
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64       `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	BreakerFailures   int           `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerReset      time.Duration `yaml:"breaker_reset" mapstructure:"breaker_reset"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the extracted-feature cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LogConfig configures zap
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// MetricsConfig configures the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // Empty disables the listener
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			MaxDocumentBytes: 20 << 20,
			Workers:          4,
			OCR: OCRConfig{
				Provider:      "tesseract",
				TesseractPath: "tesseract",
				PdftoppmPath:  "pdftoppm",
				Language:      "eng",
				MistralModel:  "mistral-ocr-latest",
				Timeout:       60 * time.Second,
			},
		},
		Consistency: ConsistencyConfig{
			DateToleranceDays:        31,
			AmountDeviationThreshold: 0.20,
		},
		Scoring: ScoringConfig{
			Baseline:            50,
			MinWordCount:        10,
			SufficientWordCount: 100,
			ClassifierTimeout:   5 * time.Second,
		},
		Interview: InterviewConfig{
			MaxTurns:      3,
			Timeout:       20 * time.Second,
			HistoryWindow: 5,
		},
		Verdict: VerdictConfig{
			IndicatorWeight:            5,
			MaxInterviewPenalty:        20,
			MediumThreshold:            40,
			HighThreshold:              70,
			SeniorReviewIndicatorCount: 3,
		},
		LLM: LLMConfig{
			Provider:          "", // Disabled by default
			Timeout:           30 * time.Second,
			MaxTokens:         500,
			Temperature:       0.3,
			RequestsPerSecond: 2,
			Burst:             4,
			BreakerFailures:   3,
			BreakerReset:      30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".claimrisk-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
