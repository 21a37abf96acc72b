package llm

import (
	"context"

	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/service"
	"go.uber.org/zap"
)

// Input is everything a generator needs to describe one forecast.
type Input struct {
	PostalCode   string
	LocationName string
	Forecast     *service.Forecast
	// Context is retrieved knowledge text, possibly empty.
	Context string
}

// Generator produces the user-facing forecast summary.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
	Name() string
}

// NewGenerator picks the backend once at startup: the chat model when an API
// key is configured, the deterministic template otherwise.
func NewGenerator(cfg config.LLMConfig, logger *zap.Logger) Generator {
	if cfg.APIKey == "" {
		logger.Info("No LLM API key configured, using template responses")
		return NewTemplateGenerator()
	}

	logger.Info("Using OpenAI chat model for responses", zap.String("model", cfg.Model))
	return NewOpenAIGenerator(cfg)
}
