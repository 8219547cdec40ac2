// Package main is the entry point for the postforge controller.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postforge/internal/ai"
	"postforge/internal/config"
	"postforge/internal/controller"
	"postforge/internal/generate"
	"postforge/internal/history"
	"postforge/internal/logger"
	"postforge/internal/observability"
	"postforge/internal/publish"
	"postforge/internal/resilience"
	"postforge/internal/schedule"
	"postforge/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx := context.Background()

	// Connect to Postgres; pending migrations run on startup.
	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	// Tracing
	shutdownTracer, err := observability.Init(ctx, "postforge-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	gate := resilience.NewGate(resilience.DefaultConfig(), slogger)

	// The controller needs the full generation pipeline for manual runs.
	runner, err := buildRunner(cfg, st, gate, slogger)
	if err != nil {
		log.Fatalf("Failed to build generation pipeline: %v", err)
	}
	processor := schedule.NewProcessor(st, runner, slogger, cfg.WorkerBatchSize)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, st, processor, gate, metricsHandler)

	go func() {
		log.Printf("Postforge Controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}

// buildRunner wires the AI client, resilience gate, history recorder
// and publishing targets into a generator.
func buildRunner(cfg *config.Config, st *postgres.Store, gate *resilience.Gate, slogger *slog.Logger) (*generate.Generator, error) {
	client, err := ai.NewOpenAI(ai.OpenAIConfig{
		BaseURL:    cfg.AIBaseURL,
		APIKey:     cfg.AIAPIKey,
		TextModel:  cfg.AITextModel,
		ImageModel: cfg.AIImageModel,
	})
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewRunMetrics()
	if err != nil {
		return nil, err
	}

	guarded := ai.NewGuarded(client, gate)
	guarded.OnCall = metrics.ObserveAICall

	artifacts, err := publish.NewCMSClient(cfg.CMSBaseURL, cfg.CMSToken)
	if err != nil {
		return nil, err
	}

	var stock generate.StockSearcher
	if cfg.StockPhotoBaseURL != "" {
		sp, err := publish.NewStockPhotoClient(cfg.StockPhotoBaseURL, cfg.StockPhotoKey)
		if err != nil {
			return nil, err
		}
		stock = sp
	}

	recorder := history.NewRecorder(st, slogger)
	gen := generate.NewGenerator(guarded, artifacts, stock, publish.NewMediaPicker(st), recorder, slogger, generate.SiteInfo{
		Name:        cfg.SiteName,
		Description: cfg.SiteDescription,
	})
	gen.Observer = metrics
	return gen, nil
}
