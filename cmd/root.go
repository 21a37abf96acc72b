package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/knowledge"
	"github.com/vzahanych/weather-rag-app/internal/llm"
	"github.com/vzahanych/weather-rag-app/internal/predictor"
	"github.com/vzahanych/weather-rag-app/internal/service"
	"github.com/vzahanych/weather-rag-app/pkg/logger"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	log        *zap.Logger
	tele       *telemetry.Telemetry
	configPath string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather-rag",
		Short: "Weather forecast summaries by postal code",
		Long: `Resolves a postal code to a location, fetches its daily forecast and writes a
short summary of temperature and humidity, optionally enriched with tips
retrieved from a local knowledge base.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(serverCmd())
	cmd.AddCommand(predictCmd())
	cmd.AddCommand(indexCmd())

	return cmd
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	defer shutdownServices()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	// 1. Environment from .env, never overriding variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. Set config
	// Having config in atomic allows changing it during runtime
	config.SetConfig(cfg)

	// 4. Initialize logger
	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Warn("Failed to initialize telemetry, tracing disabled", zap.Error(err))
		tele = nil
	}

	return nil
}

func shutdownServices() {
	if err := tele.Shutdown(context.Background()); err != nil && log != nil {
		log.Warn("Failed to shut down telemetry", zap.Error(err))
	}
	if log != nil {
		_ = log.Sync()
	}
}

// components is the wired application graph shared by the subcommands.
type components struct {
	predictor *predictor.Predictor
	generator llm.Generator
	// retriever is nil when no embedder could be configured.
	retriever *knowledge.Retriever
}

func buildComponents(cfg *config.Config) (*components, error) {
	provider, err := service.NewProvider(cfg.Weather, log, tele)
	if err != nil {
		return nil, err
	}

	generator := llm.NewGenerator(cfg.LLM, log)

	// The retriever exists even when retrieval is off by default, so a
	// request can still opt in.
	var retriever *knowledge.Retriever
	embedder, err := knowledge.NewEmbedder(cfg.RAG.Embedder, cfg.LLM)
	switch {
	case err == nil:
		retriever = knowledge.NewRetriever(knowledge.OptionsFromConfig(cfg.RAG), embedder, log, tele)
	case cfg.RAG.RetrievalEnabled():
		return nil, fmt.Errorf("failed to configure embedder: %w", err)
	default:
		log.Warn("Knowledge retrieval unavailable", zap.Error(err))
	}

	opts := predictor.Options{
		RAGEnabled: cfg.RAG.RetrievalEnabled(),
		TopK:       cfg.RAG.TopK,
	}

	var p *predictor.Predictor
	if retriever != nil {
		p = predictor.New(provider, retriever, generator, opts, log, tele)
	} else {
		p = predictor.New(provider, nil, generator, opts, log, tele)
	}

	return &components{
		predictor: p,
		generator: generator,
		retriever: retriever,
	}, nil
}
