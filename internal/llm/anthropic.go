package llm

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicProvider implements the Completer interface for Anthropic Claude models
type AnthropicProvider struct {
	client sdk.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, eris.New("Anthropic API key is required")
	}
	config.Timeout = resolveTimeout(config.Timeout, 30*time.Second)

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(newHTTPClient(config)),
		// The circuit breaker owns retry policy
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: sdk.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable makes a minimal request to confirm the key works
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model()),
		MaxTokens: 10,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock("Hi"))},
	})
	if err != nil {
		zap.L().Warn("anthropic availability check failed", zap.Error(err))
		return false
	}
	return true
}

// Complete asks the Messages API for the next interviewer message
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	transcript := BuildMessages(req)
	messages := make([]sdk.MessageParam, len(transcript))
	for i, m := range transcript {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages[i] = sdk.NewAssistantMessage(block)
		} else {
			messages[i] = sdk.NewUserMessage(block)
		}
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(p.model()),
		MaxTokens:   int64(p.config.maxTokens()),
		System:      []sdk.TextBlockParam{{Text: SystemPrompt(req)}},
		Messages:    messages,
		Temperature: sdk.Float(p.config.Temperature),
	})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, eris.New("no content in Anthropic response")
	}

	reply := ParseReply(sb.String())
	reply.Model = string(msg.Model)
	return reply, nil
}

func (p *AnthropicProvider) model() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return defaultAnthropicModel
}
