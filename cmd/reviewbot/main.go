package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/docutag/reviewbot/api"
	"github.com/docutag/reviewbot/bot"
	"github.com/docutag/reviewbot/config"
	"github.com/docutag/reviewbot/extractor"
	"github.com/docutag/reviewbot/metrics"
	"github.com/docutag/reviewbot/modelstore"
	"github.com/docutag/reviewbot/query"
	"github.com/docutag/reviewbot/sentiment"
	"github.com/docutag/reviewbot/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", getEnv("REVIEWBOT_CONFIG", ""), "Path to a YAML config file")
	flag.Parse()

	logger.Info("reviewbot initializing", "version", "1.0.0")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName: "reviewbot",
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized successfully", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// The model is loaded once, before any query can be served
	scorer, err := loadScorer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load sentiment model", "model", cfg.Model.ID, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	queryMetrics := metrics.NewQueryMetrics("reviewbot", registry)

	service := query.NewService(newExtractor(cfg, logger), scorer, queryMetrics, logger)

	var wg sync.WaitGroup

	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(api.Config{
			Addr:        cfg.Server.Addr,
			CORSEnabled: cfg.Server.CORSEnabled,
		}, service, cfg.Model.ID, registry, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", "error", err)
				stop()
			}
		}()
	}

	if cfg.Telegram.Enabled {
		botAPI, err := bot.Connect(bot.Config{
			Token:       cfg.Telegram.Token,
			HTTPTimeout: bot.DefaultConfig().HTTPTimeout,
			PollTimeout: cfg.Telegram.PollTimeout,
		})
		if err != nil {
			logger.Error("failed to start telegram bot, check the internet connection or VPN", "error", err)
			os.Exit(1)
		}

		b := bot.New(botAPI, service, cfg.Telegram.Workers, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx, botAPI, cfg.Telegram.PollTimeout)
		}()
	}

	logger.Info("reviewbot started",
		"model", cfg.Model.ID,
		"model_source", cfg.Model.Source,
		"inference_url", cfg.Model.InferenceURL,
		"telegram_enabled", cfg.Telegram.Enabled,
		"server_enabled", cfg.Server.Enabled,
		"server_addr", cfg.Server.Addr,
	)

	<-ctx.Done()

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}
	wg.Wait()

	logger.Info("reviewbot stopped")
}

// loadScorer resolves the tokenizer, verifies the served model and builds the scorer
func loadScorer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sentiment.Scorer, error) {
	resolver, err := modelstore.Open(ctx, modelstore.Config{
		Source:   cfg.Model.Source,
		ModelID:  cfg.Model.ID,
		Dir:      cfg.Model.Dir,
		CacheDir: cfg.Model.CacheDir,
		S3: modelstore.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	artifacts, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	tokenizer, err := sentiment.LoadTokenizer(artifacts.TokenizerPath)
	if err != nil {
		return nil, err
	}

	servingName := cfg.Model.ServingName
	if servingName == "" {
		servingName = sentiment.ServingName(cfg.Model.ID)
	}
	inference := sentiment.DefaultInferenceConfig()
	inference.BaseURL = cfg.Model.InferenceURL
	inference.ModelName = servingName
	inference.Timeout = cfg.Model.Timeout

	model, err := sentiment.LoadModel(ctx, inference, logger)
	if err != nil {
		return nil, err
	}

	return sentiment.NewScorer(tokenizer, model, sentiment.Config{
		MaxLength:     cfg.Model.MaxLength,
		PadTokenID:    cfg.Model.PadTokenID,
		PositiveIndex: cfg.Model.PositiveIndex,
	}, logger), nil
}

// newExtractor builds the page extractor: fixed rules unless selectors are
// configured, wrapped in retries when more than one attempt is allowed
func newExtractor(cfg *config.Config, logger *slog.Logger) extractor.Extractor {
	extractorConfig := extractor.DefaultConfig()
	extractorConfig.HTTPTimeout = cfg.Scraper.HTTPTimeout
	if cfg.Scraper.UserAgent != "" {
		extractorConfig.UserAgent = cfg.Scraper.UserAgent
	}

	var e extractor.Extractor = extractor.New(extractorConfig, logger)
	if !cfg.Scraper.Selectors.IsZero() {
		e = extractor.NewSelectorExtractor(extractorConfig, cfg.Scraper.Selectors, logger)
	}

	return extractor.Retrying(e, cfg.Scraper.RetryAttempts, logger)
}
