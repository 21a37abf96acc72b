package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/config"
)

// Embedder turns texts into vectors. Model identifies the embedding space; two
// indexes are comparable only when their Model values match.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// NewEmbedder builds the embedder named by cfg.Type. The OpenAI variant reuses
// the chat model credential.
func NewEmbedder(cfg config.EmbedderConfig, llmCfg config.LLMConfig) (Embedder, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch cfg.Type {
	case "", "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, timeout), nil
	case "openai":
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedder requires OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(llmCfg.APIKey, llmCfg.BaseURL, cfg.Model), nil
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}
