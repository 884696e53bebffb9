package collection

import (
	"strings"

	"github.com/kailas-cloud/lexidex/internal/shard"
)

// Highlight implements the Highlighter (C8): tokenize the field text by
// space, decode the shard-supplied offset_diffs/start_offset ABI into
// absolute token indices, window the text around the matched tokens when
// it is long, and wrap every matched token in <mark>...</mark>.
func Highlight(text string, ms shard.MatchScore, snippetStrAboveLen int) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text
	}

	indices := decodeTokenIndices(ms)
	if len(indices) == 0 {
		return text
	}

	minIdx, maxIdx := indices[0], indices[0]
	for _, i := range indices {
		if i < minIdx {
			minIdx = i
		}
		if i > maxIdx {
			maxIdx = i
		}
	}

	lo, hi := 0, len(tokens)
	if len(tokens) > snippetStrAboveLen {
		lo = max(0, minIdx-5)
		hi = min(len(tokens), maxIdx+6)
	}

	marked := make(map[int]bool, len(indices))
	for _, i := range indices {
		marked[i] = true
	}

	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if marked[i] {
			out = append(out, "<mark>"+tokens[i]+"</mark>")
		} else {
			out = append(out, tokens[i])
		}
	}
	return strings.Join(out, " ")
}

// decodeTokenIndices turns offset_diffs into absolute token positions.
// offset_diffs[0] is the matched-token count; offset_diffs[1:] are
// per-token deltas from start_offset, with shard.Int8Missing marking a
// token that did not match.
func decodeTokenIndices(ms shard.MatchScore) []int {
	if len(ms.OffsetDiffs) == 0 {
		return nil
	}
	n := int(ms.OffsetDiffs[0])
	indices := make([]int, 0, n)
	for i := 1; i <= n && i < len(ms.OffsetDiffs); i++ {
		if ms.OffsetDiffs[i] == shard.Int8Missing {
			continue
		}
		indices = append(indices, ms.StartOffset+int(ms.OffsetDiffs[i]))
	}
	return indices
}
