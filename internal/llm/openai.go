package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/vzahanych/weather-rag-app/internal/config"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.2
)

const systemPrompt = `You are a helpful weather assistant. Given forecast data (maximum/minimum temperature and relative humidity) for a location, you provide a clear, concise summary and interpretation.

Use the following RETRIEVED CONTEXT only to add brief, relevant tips (e.g., comfort, humidity interpretation). Do not make up numbers; use only the FORECAST DATA provided.

Format your response in a friendly, readable way. Always include:
1. Location name.
2. For the next 1-2 days: maximum temperature, minimum temperature, and relative humidity (from the data).
3. A short interpretation (e.g., how it might feel, any tip from context if relevant).

Keep the response under 200 words unless the user asked for more detail.`

const userPromptFormat = `RETRIEVED CONTEXT (use only for tips/interpretation):
%s

FORECAST DATA (use these numbers only):
%s

Location: %s
User query: zipcode %s - predict maximum and minimum temperature and relative humidity.`

// OpenAIGenerator asks a chat model to summarise the forecast. Requests are
// not retried.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

func NewOpenAIGenerator(cfg config.LLMConfig) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

func (g *OpenAIGenerator) Generate(ctx context.Context, in Input) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(in)),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func userPrompt(in Input) string {
	retrieved := in.Context
	if retrieved == "" {
		retrieved = "No additional context."
	}
	return fmt.Sprintf(userPromptFormat,
		retrieved,
		FormatForecast(in.Forecast, in.LocationName, SummaryDays),
		in.LocationName,
		in.PostalCode,
	)
}
