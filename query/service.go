package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/docutag/reviewbot/metrics"
	"github.com/docutag/reviewbot/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/docutag/reviewbot/query"

// PageExtractor fetches and parses one product page
type PageExtractor interface {
	Fetch(ctx context.Context, targetURL string) (*models.ProductPage, error)
}

// Scorer aggregates a non-empty list of review texts into a satisfaction score
type Scorer interface {
	Score(ctx context.Context, texts []string) (*models.SentimentResult, error)
}

// Service turns a raw chat message into exactly one query outcome.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	extractor PageExtractor
	scorer    Scorer
	metrics   *metrics.QueryMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewService creates a Service. metrics may be nil.
func NewService(extractor PageExtractor, scorer Scorer, m *metrics.QueryMetrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: extractor,
		scorer:    scorer,
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// Handle runs extraction then scoring for raw. Every error is converted into
// a Failed outcome; the scorer is never called for a page without reviews.
func (s *Service) Handle(ctx context.Context, raw string) models.Outcome {
	requestID := uuid.New().String()
	ctx, span := s.tracer.Start(ctx, "query.Handle", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.String("url", raw),
	))
	defer span.End()

	start := time.Now()
	outcome := s.run(ctx, raw)
	outcome.RequestID = requestID
	outcome.CompletedAt = time.Now()

	span.SetAttributes(attribute.String("outcome", string(outcome.Status)))
	s.metrics.ObserveOutcome(string(outcome.Status))

	logger := s.logger.With("request_id", requestID, "url", raw, "duration", time.Since(start))
	switch outcome.Status {
	case models.StatusSucceeded:
		logger.Info("query succeeded",
			"title", outcome.Page.Title,
			"reviews", outcome.Result.ReviewCount,
			"satisfaction", outcome.Result.SatisfactionFraction,
		)
	case models.StatusNoReviews:
		logger.Info("query found no reviews", "title", outcome.Page.Title)
	default:
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Reason)
		logger.Warn("query failed", "stage", outcome.Stage, "error", outcome.Err)
	}

	return outcome
}

func (s *Service) run(ctx context.Context, raw string) models.Outcome {
	extractStart := time.Now()
	page, err := s.extractor.Fetch(ctx, raw)
	s.metrics.ObserveStage(metrics.StageExtract, time.Since(extractStart))
	if err != nil {
		return models.Failed(metrics.StageExtract, err)
	}

	s.metrics.ObserveReviews(len(page.Reviews))
	if len(page.Reviews) == 0 {
		return models.NoReviews(page)
	}

	scoreStart := time.Now()
	result, err := s.scorer.Score(ctx, page.Reviews)
	s.metrics.ObserveStage(metrics.StageScore, time.Since(scoreStart))
	if err != nil {
		return models.Failed(metrics.StageScore, err)
	}

	return models.Succeeded(page, result)
}
