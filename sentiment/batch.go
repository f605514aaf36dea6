package sentiment

// Batch is a padded set of encodings ready for one forward pass.
// All rows have length SeqLen; AttentionMask is 1 for real tokens and 0 for padding.
type Batch struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
	TokenTypeIDs  [][]int64
	SeqLen        int
}

// NewBatch truncates every encoding to maxLength (keeping the trailing
// separator token) and right-pads all rows to the longest one with padID.
// maxLength <= 0 disables truncation.
func NewBatch(encodings [][]int, padID, maxLength int) Batch {
	truncated := make([][]int, len(encodings))
	seqLen := 0
	for i, ids := range encodings {
		truncated[i] = truncate(ids, maxLength)
		if len(truncated[i]) > seqLen {
			seqLen = len(truncated[i])
		}
	}

	b := Batch{
		InputIDs:      make([][]int64, len(encodings)),
		AttentionMask: make([][]int64, len(encodings)),
		TokenTypeIDs:  make([][]int64, len(encodings)),
		SeqLen:        seqLen,
	}
	for i, ids := range truncated {
		row := make([]int64, seqLen)
		mask := make([]int64, seqLen)
		for j := 0; j < seqLen; j++ {
			if j < len(ids) {
				row[j] = int64(ids[j])
				mask[j] = 1
			} else {
				row[j] = int64(padID)
			}
		}
		b.InputIDs[i] = row
		b.AttentionMask[i] = mask
		b.TokenTypeIDs[i] = make([]int64, seqLen)
	}
	return b
}

// Size returns the number of rows in the batch
func (b Batch) Size() int {
	return len(b.InputIDs)
}

// Unpadded returns the real tokens of row i
func (b Batch) Unpadded(i int) []int64 {
	var ids []int64
	for j, m := range b.AttentionMask[i] {
		if m == 1 {
			ids = append(ids, b.InputIDs[i][j])
		}
	}
	return ids
}

func truncate(ids []int, maxLength int) []int {
	if maxLength <= 0 || len(ids) <= maxLength {
		return ids
	}
	out := make([]int, 0, maxLength)
	out = append(out, ids[:maxLength-1]...)
	return append(out, ids[len(ids)-1])
}

func flatten(rows [][]int64) []int64 {
	if len(rows) == 0 {
		return []int64{}
	}
	out := make([]int64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
