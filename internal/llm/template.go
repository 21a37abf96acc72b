package llm

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator renders a fixed summary without calling any model.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Name() string {
	return "template"
}

func (g *TemplateGenerator) Generate(_ context.Context, in Input) (string, error) {
	lines := []string{
		fmt.Sprintf("**Location:** %s (zipcode: %s)", in.LocationName, in.PostalCode),
		"",
		fmt.Sprintf("**Forecast (next %d days):**", SummaryDays),
		FormatForecast(in.Forecast, in.LocationName, SummaryDays),
		"",
		"*(Set OPENAI_API_KEY in .env for an LLM-generated interpretation and tips.)*",
	}
	return strings.Join(lines, "\n"), nil
}
