package sentiment

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer converts one text into model token ids, special tokens included
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// WordPieceTokenizer is a Tokenizer backed by a HuggingFace tokenizer.json
type WordPieceTokenizer struct {
	mu sync.Mutex
	tk *tokenizer.Tokenizer
}

// LoadTokenizer reads a tokenizer.json file
func LoadTokenizer(path string) (*WordPieceTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return &WordPieceTokenizer{tk: tk}, nil
}

// Encode tokenizes text with [CLS]/[SEP] added. Padding configured in the
// tokenizer file is stripped so that batching controls padding alone.
func (w *WordPieceTokenizer) Encode(text string) ([]int, error) {
	w.mu.Lock()
	en, err := w.tk.EncodeSingle(text, true)
	w.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}

	if len(en.AttentionMask) != len(en.Ids) {
		return en.Ids, nil
	}
	ids := make([]int, 0, len(en.Ids))
	for i, id := range en.Ids {
		if en.AttentionMask[i] == 1 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
