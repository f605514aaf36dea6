package sentiment

import (
	"context"
	"fmt"
	"math"
)

// NumClasses is the size of the classifier output: negative and positive
const NumClasses = 2

// Model runs one forward pass over a padded batch and returns one row of
// raw logits per batch row. Implementations must honour the attention mask
// so that padding does not change the logits of the real tokens.
type Model interface {
	Logits(ctx context.Context, batch Batch) ([][]float64, error)
}

// softmax converts one row of logits into probabilities summing to 1
func softmax(logits []float64) ([]float64, error) {
	if len(logits) != NumClasses {
		return nil, fmt.Errorf("expected %d logits, got %d", NumClasses, len(logits))
	}

	peak := math.Inf(-1)
	for _, l := range logits {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("non-finite logit %v", l)
		}
		if l > peak {
			peak = l
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - peak)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}
