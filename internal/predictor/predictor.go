package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/llm"
	"github.com/vzahanych/weather-rag-app/internal/metrics"
	"github.com/vzahanych/weather-rag-app/internal/service"
	"github.com/vzahanych/weather-rag-app/pkg/logger"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultCountry = "US"
	DefaultTopK    = 4

	queryTemplate = "temperature humidity forecast maximum minimum relative humidity %s"
)

// Retriever returns knowledge text relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (string, error)
}

type Options struct {
	// RAGEnabled applies when a request does not say whether to retrieve.
	RAGEnabled bool
	TopK       int
}

type Request struct {
	PostalCode string
	Country    string
	// UseRAG overrides Options.RAGEnabled when set.
	UseRAG *bool
}

// Result is the outcome of one prediction. Location and Forecast are nil when
// the lookup did not get that far.
type Result struct {
	Success  bool
	Message  string
	Error    string
	Location *service.Location
	Forecast *service.Forecast
}

// Predictor runs weather lookup, optional retrieval and generation in order.
// It keeps no per-request state and is safe for concurrent use.
type Predictor struct {
	provider  service.WeatherProvider
	retriever Retriever
	generator llm.Generator
	opts      Options
	logger    *zap.Logger
	tele      *telemetry.Telemetry
}

func New(provider service.WeatherProvider, retriever Retriever, generator llm.Generator, opts Options, logger *zap.Logger, tele *telemetry.Telemetry) *Predictor {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Predictor{
		provider:  provider,
		retriever: retriever,
		generator: generator,
		opts:      opts,
		logger:    logger,
		tele:      tele,
	}
}

// Predict never reports a failed weather lookup as an error; it returns a
// Result with Success false instead. The error return is reserved for
// generator failures.
func (p *Predictor) Predict(ctx context.Context, req Request) (*Result, error) {
	ctx, span := p.tele.GetTracer().Start(ctx, "predictor.Predict")
	defer span.End()

	reqLogger := logger.FromContext(ctx, p.logger)

	postalCode := strings.TrimSpace(req.PostalCode)
	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = DefaultCountry
	}

	span.SetAttributes(
		attribute.String("postal_code", postalCode),
		attribute.String("country", country),
	)

	loc, forecast, err := service.GetWeather(ctx, p.provider, postalCode, country)
	if err != nil {
		outcome := "weather_failed"
		switch {
		case errors.Is(err, service.ErrLocationNotFound):
			outcome = "location_not_found"
		case errors.Is(err, service.ErrForecastUnavailable):
			outcome = "forecast_unavailable"
		}
		metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.Bool("success", false), attribute.String("outcome", outcome))

		reqLogger.Info("Weather lookup failed",
			zap.String("postal_code", postalCode),
			zap.String("country", country),
			zap.String("outcome", outcome),
			zap.Error(err))

		return &Result{
			Success:  false,
			Message:  err.Error(),
			Error:    err.Error(),
			Location: loc,
		}, nil
	}

	useRAG := p.opts.RAGEnabled
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	retrieved := ""
	if useRAG {
		retrieved = p.retrieve(ctx, reqLogger, postalCode)
	} else {
		metrics.RetrievalTotal.WithLabelValues("skipped").Inc()
	}
	span.SetAttributes(attribute.Bool("rag", useRAG))

	start := time.Now()
	message, err := p.generator.Generate(ctx, llm.Input{
		PostalCode:   postalCode,
		LocationName: loc.Name,
		Forecast:     forecast,
		Context:      retrieved,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.GenerationDuration.WithLabelValues(p.generator.Name(), status).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("generation_failed").Inc()
		p.tele.RecordError(ctx, err, attribute.String("generator", p.generator.Name()))
		reqLogger.Error("Response generation failed",
			zap.String("postal_code", postalCode),
			zap.String("generator", p.generator.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("generate response: %w", err)
	}

	metrics.PredictionsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Bool("success", true))

	reqLogger.Info("Prediction completed",
		zap.String("postal_code", postalCode),
		zap.String("location", loc.Name),
		zap.Bool("rag", useRAG),
		zap.String("generator", p.generator.Name()),
		zap.Duration("generation", time.Since(start)))

	return &Result{
		Success:  true,
		Message:  message,
		Location: loc,
		Forecast: forecast,
	}, nil
}

// retrieve never fails the prediction: errors are folded into the context
// text handed to the generator.
func (p *Predictor) retrieve(ctx context.Context, reqLogger *zap.Logger, postalCode string) string {
	if p.retriever == nil {
		metrics.RetrievalTotal.WithLabelValues("skipped").Inc()
		return ""
	}

	text, err := p.retriever.Retrieve(ctx, fmt.Sprintf(queryTemplate, postalCode), p.opts.TopK)
	if err != nil {
		metrics.RetrievalTotal.WithLabelValues("failed").Inc()
		reqLogger.Warn("Knowledge retrieval failed, continuing without context", zap.Error(err))
		return fmt.Sprintf("(RAG retrieval failed: %v)", err)
	}

	metrics.RetrievalTotal.WithLabelValues("ok").Inc()
	return text
}
