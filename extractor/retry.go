package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docutag/reviewbot/models"
)

// retrying decorates an Extractor with exponential backoff on transient failures.
// Client statuses, parse errors, missing fields and invalid URLs are returned immediately.
type retrying struct {
	inner           Extractor
	attempts        int
	initialInterval time.Duration
	logger          *slog.Logger
}

// Retrying wraps inner so that transient failures are retried up to attempts
// times in total. attempts <= 1 returns inner unchanged.
func Retrying(inner Extractor, attempts int, logger *slog.Logger) Extractor {
	if attempts <= 1 {
		return inner
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retrying{
		inner:           inner,
		attempts:        attempts,
		initialInterval: 500 * time.Millisecond,
		logger:          logger,
	}
}

func (r *retrying) Fetch(ctx context.Context, targetURL string) (*models.ProductPage, error) {
	var page *models.ProductPage
	attempt := 0

	operation := func() error {
		attempt++
		p, err := r.inner.Fetch(ctx, targetURL)
		if err == nil {
			page = p
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("page fetch failed",
			"url", targetURL,
			"attempt", attempt,
			"max_attempts", r.attempts,
			"error", err,
		)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), ctx)

	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return page, nil
}
