package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// Generator implements domain.TextGenerator on top of a langchaingo model.
type Generator struct {
	model       llms.Model
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// NewGenerator wraps an existing langchaingo model.
func NewGenerator(model llms.Model, cfg config.LLMConfig) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("llm model cannot be nil")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("llm timeout must be positive, got %s", cfg.Timeout)
	}
	return &Generator{
		model:       model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// NewFromConfig builds the provider client named by cfg.Provider.
func NewFromConfig(cfg config.LLMConfig) (*Generator, error) {
	// The transport timeout is a backstop; Generate bounds each call by ctx.
	httpClient := &http.Client{Timeout: cfg.Timeout + 5*time.Second}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key cannot be empty")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
			ollama.WithFormat("json"),
			ollama.WithHTTPClient(httpClient),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s LLM client: %w", cfg.Provider, err)
	}

	logger.Get().Info("LLM generator initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return NewGenerator(model, cfg)
}

// Generate sends prompt as a single user message in JSON mode and returns the
// text of the first choice. Every failure is a domain UpstreamFailure.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := []llms.CallOption{
		llms.WithJSONMode(),
		llms.WithTemperature(g.temperature),
	}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.Error(err), zap.Duration("timeout", g.timeout))
			return "", domain.NewUpstreamFailureError(fmt.Errorf("LLM request timed out after %s: %w", g.timeout, err))
		}
		l.Error("Failed to get response from LLM", zap.Error(err), zap.Duration("elapsed", elapsed))
		return "", domain.NewUpstreamFailureError(fmt.Errorf("LLM call failed: %w", err))
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		l.Error("LLM returned no completion choices", zap.Duration("elapsed", elapsed))
		return "", domain.NewUpstreamFailureError(errors.New("LLM returned no completion choices"))
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		l.Error("LLM returned an empty completion", zap.String("stop_reason", choice.StopReason))
		return "", domain.NewUpstreamFailureError(fmt.Errorf("LLM returned an empty completion (stop reason %q)", choice.StopReason))
	}

	l.Debug("LLM completion received",
		zap.Duration("elapsed", elapsed),
		zap.String("stop_reason", choice.StopReason),
		zap.Int("length", len(choice.Content)),
	)
	return choice.Content, nil
}

var _ domain.TextGenerator = (*Generator)(nil)
