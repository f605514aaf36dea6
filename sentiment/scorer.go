package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docutag/reviewbot/models"
	"github.com/docutag/reviewbot/textnorm"
)

// Config contains scorer configuration
type Config struct {
	MaxLength     int // model maximum input length in tokens
	PadTokenID    int
	PositiveIndex int // index of the positive class in the logits row
}

// DefaultConfig returns the settings for BERT-style Persian sentiment models
func DefaultConfig() Config {
	return Config{
		MaxLength:     512,
		PadTokenID:    0,
		PositiveIndex: 1,
	}
}

// Scorer aggregates review texts into one satisfaction score.
// The tokenizer and model are shared read-only across concurrent calls.
type Scorer struct {
	tokenizer Tokenizer
	model     Model
	config    Config
	logger    *slog.Logger
}

// NewScorer creates a Scorer around a loaded tokenizer and model
func NewScorer(tokenizer Tokenizer, model Model, config Config, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		tokenizer: tokenizer,
		model:     model,
		config:    config,
		logger:    logger,
	}
}

// Probabilities returns the positive-class probability of every text, in input
// order, computed with a single batched forward pass.
func (s *Scorer) Probabilities(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if s.config.PositiveIndex < 0 || s.config.PositiveIndex >= NumClasses {
		return nil, InferenceFailed(fmt.Errorf("positive index %d out of range", s.config.PositiveIndex))
	}

	encodings := make([][]int, len(texts))
	for i, text := range textnorm.NormalizeAll(texts) {
		ids, err := s.tokenizer.Encode(text)
		if err != nil {
			return nil, InferenceFailed(fmt.Errorf("text %d: %w", i, err))
		}
		encodings[i] = ids
	}

	batch := NewBatch(encodings, s.config.PadTokenID, s.config.MaxLength)
	if batch.SeqLen == 0 {
		return nil, InferenceFailed(fmt.Errorf("tokenizer produced no tokens"))
	}

	logits, err := s.model.Logits(ctx, batch)
	if err != nil {
		return nil, InferenceFailed(err)
	}
	if len(logits) != len(texts) {
		return nil, InferenceFailed(fmt.Errorf("model returned %d rows for %d texts", len(logits), len(texts)))
	}

	positives := make([]float64, len(logits))
	for i, row := range logits {
		probs, err := softmax(row)
		if err != nil {
			return nil, InferenceFailed(fmt.Errorf("row %d: %w", i, err))
		}
		positives[i] = probs[s.config.PositiveIndex]
	}
	return positives, nil
}

// Score returns the mean positive-class probability across texts.
// texts must be non-empty.
func (s *Scorer) Score(ctx context.Context, texts []string) (*models.SentimentResult, error) {
	start := time.Now()

	positives, err := s.Probabilities(ctx, texts)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, p := range positives {
		sum += p
	}
	fraction := clamp(sum / float64(len(positives)))

	s.logger.Debug("scored reviews",
		"reviews", len(texts),
		"satisfaction", fraction,
		"duration", time.Since(start),
	)

	return &models.SentimentResult{
		SatisfactionFraction: fraction,
		ReviewCount:          len(texts),
	}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
