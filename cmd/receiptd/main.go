package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/numzy/receipt-processor/internal/audit"
	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/document"
	"github.com/numzy/receipt-processor/internal/extraction"
	"github.com/numzy/receipt-processor/internal/llm"
	"github.com/numzy/receipt-processor/internal/llm/gemini"
	"github.com/numzy/receipt-processor/internal/llm/openai"
	"github.com/numzy/receipt-processor/internal/observability/metrics"
	"github.com/numzy/receipt-processor/internal/pipeline"
	"github.com/numzy/receipt-processor/internal/resilience"
	"github.com/numzy/receipt-processor/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evaluator, cleanup, err := buildEvaluator(ctx, cfg, logger)
	if err != nil {
		logger.Error("llm.client.failed", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.Resilience.RetryMaxAttempts,
		RetryInitialBackoff: cfg.Resilience.RetryInitialBackoff,
		BreakerEnabled:      cfg.Resilience.BreakerEnabled,
	})

	normalizer := document.NewNormalizer(document.Config{
		RasterDPI: cfg.Pipeline.RasterDPI,
		MaxPages:  cfg.Pipeline.MaxRasterPages,
	}, logger)
	adapter := extraction.NewAdapter(evaluator, exec, logger)
	orchestrator := extraction.NewOrchestrator(adapter, normalizer, logger)
	rules := audit.Rules{
		LimitCents:     cfg.Pipeline.AuditLimitCents,
		ToleranceCents: cfg.Pipeline.MathToleranceCents,
	}
	engine := audit.NewEngine(evaluator, exec, rules, logger)

	m := metrics.NewPipelineMetrics("receipt-processor")
	processor := pipeline.NewProcessor("receipt-processor", normalizer, orchestrator, engine, m, logger)

	srv := server.New(cfg.Server, processor, rules, m, logger)
	logger.Info("starting",
		"addr", cfg.Server.HTTPAddr,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server.failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func buildEvaluator(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Evaluator, func(), error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return client, func() { client.Close() }, nil
	default:
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return client, func() {}, nil
	}
}
