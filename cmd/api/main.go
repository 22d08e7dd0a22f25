package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/pixelloom/studio/internal/batch"
	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/http/handlers"
	"github.com/pixelloom/studio/internal/http/httpapi"
	"github.com/pixelloom/studio/internal/infra"
	"github.com/pixelloom/studio/internal/library"
	"github.com/pixelloom/studio/internal/providers/genai"
	imgprov "github.com/pixelloom/studio/internal/providers/image"
	"github.com/pixelloom/studio/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// Root context: canceling it drains in-flight batch work as no-ops.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lib, err := library.Open(cfg.LibraryPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open library store")
	}
	defer lib.Close()

	assets, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("init asset store")
	}

	client, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		RatePerMin: cfg.GenerateRatePerMin,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init generation client")
	}
	generator := imgprov.NewGeminiGenerator(client)

	work := func(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
		return generator.Generate(ctx, input)
	}
	batches := batch.NewManager(ctx, work, cfg.BatchConcurrency)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Generator: generator,
		Batches:   batches,
		Library:   lib,
		Assets:    assets,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(cfg, app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
