package rng

import "fmt"

// DivergenceError describes the first position at which two generators that
// should agree bit for bit did not.
type DivergenceError struct {
	Index    int // block index for CompareBlocks, word index for CompareWords
	Word     int // word within the block, -1 for CompareWords
	Expected uint32
	Actual   uint32
}

func (e *DivergenceError) Error() string {
	if e.Word < 0 {
		return fmt.Sprintf("streams differ at word %d (%08x vs %08x)", e.Index, e.Expected, e.Actual)
	}
	return fmt.Sprintf("streams differ at block %d word %d (%08x vs %08x)", e.Index, e.Word, e.Expected, e.Actual)
}

// CompareBlocks runs scalar and batch in lockstep over iterations blocks
// (rounded up to whole batches) and reports the first mismatch. Both
// generators are consumed.
func CompareBlocks(scalar *Philox, batch BatchEngine, iterations int) error {
	var lanes Lanes

	for base := 0; base < iterations; base += BatchLanes {
		batch.NextBlocks(&lanes)

		for i := 0; i < BatchLanes; i++ {
			expected := scalar.NextBlock()
			for w := 0; w < 4; w++ {
				if actual := lanes[w][i]; actual != expected[w] {
					return &DivergenceError{
						Index:    base + i,
						Word:     w,
						Expected: expected[w],
						Actual:   actual,
					}
				}
			}
		}
	}

	return nil
}

// CompareWords draws n words from both sources and reports the first mismatch.
func CompareWords(expected, actual Source32, n int) error {
	for i := 0; i < n; i++ {
		e, a := expected.Next(), actual.Next()
		if e != a {
			return &DivergenceError{Index: i, Word: -1, Expected: e, Actual: a}
		}
	}

	return nil
}
