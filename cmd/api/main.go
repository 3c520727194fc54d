// @title CBT Question Generator API
// @version 1.0
// @description Generates multiple-choice exam practice questions with a large language model.
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:3000
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cbt-question-gen/cmd/api/docs"
	"cbt-question-gen/internal/adapter/llm"
	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/logger"
	"cbt-question-gen/internal/server"
	"cbt-question-gen/internal/service"
	"cbt-question-gen/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer func() { _ = logger.Sync() }()

	generator, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM generator", zap.Error(err))
	}

	questionService := service.NewQuestionService(generator, validation.NewFromConfig(cfg.Limits))
	app := server.New(cfg, questionService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Env))
		return app.Listen(cfg.Address())
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	appLogger.Info("Server exited gracefully")
}
