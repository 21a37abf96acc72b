package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/server"
	"github.com/vzahanych/weather-rag-app/internal/server/handlers"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the prediction HTTP server",
		Long:  `Start the HTTP server exposing POST /predict plus health and Prometheus metrics endpoints.`,
		Args:  cobra.NoArgs,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()

	log.Info("Starting weather RAG server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Bool("rag_enabled", cfg.RAG.RetrievalEnabled()),
		zap.Int("server_port", cfg.Server.Port))

	app, err := buildComponents(cfg)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Predictor: app.predictor,
		Info: handlers.InfoResponse{
			Service:   "weather-rag-app",
			Version:   cfg.Version,
			Generator: app.generator.Name(),
			RAG:       cfg.RAG.RetrievalEnabled(),
		},
	}

	if app.retriever != nil && cfg.RAG.RetrievalEnabled() {
		deps.Index = app.retriever
		if cfg.RAG.WarmOnStart {
			go func() {
				if err := app.retriever.Warm(ctx); err != nil {
					log.Warn("Knowledge index warm-up failed, will retry on first request", zap.Error(err))
				}
			}()
		}
	}

	srv := server.NewServer(cfg.Server, deps, log, tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
