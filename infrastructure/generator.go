package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TextGenerator is a prompt-in, text-out model endpoint.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrAIDisabled is returned when no provider is configured.
var ErrAIDisabled = errors.New("ai provider disabled")

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrAIDisabled
}

// RetryingGenerator retries transient provider failures.
type RetryingGenerator struct {
	next  TextGenerator
	retry RetryConfig
	log   *logrus.Entry
}

func NewRetryingGenerator(next TextGenerator, retry RetryConfig, log *logrus.Entry) *RetryingGenerator {
	return &RetryingGenerator{next: next, retry: retry, log: log}
}

func (r *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return RetryDo(ctx, r.retry, r.log, func() (string, error) {
		return r.next.Generate(ctx, prompt)
	})
}

// NewGenerator picks the provider named by cfg.AIProvider.
func NewGenerator(ctx context.Context, cfg *Config, log *logrus.Entry) (TextGenerator, error) {
	var (
		gen TextGenerator
		err error
	)
	switch cfg.AIProvider {
	case "gemini":
		gen, err = NewGeminiClient(cfg.GeminiAPIKey, log)
	case "openai":
		gen, err = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "vertex":
		gen, err = NewVertexClient(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel)
	case "none":
		return disabledGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	if err != nil {
		return nil, err
	}
	return NewRetryingGenerator(gen, DefaultRetryConfig, log), nil
}
