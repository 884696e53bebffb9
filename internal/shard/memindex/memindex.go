// Package memindex is the reference Shard implementation (spec §6.2):
// a per-field inverted index with token positions, tag-equality
// filtering, numeric sort overrides, and facet counting. It has no typo
// expansion and no prefix trie; it exists to exercise the Shard contract
// end-to-end, not to be a production search engine.
package memindex

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/shard"
)

type posting struct {
	seqID     uint32
	positions []uint16
}

// Index is an in-memory, mutex-guarded inverted index over one shard's
// share of a collection's documents.
type Index struct {
	mu     sync.RWMutex
	schema schema.Schema

	live *roaring.Bitmap // seq-ids currently present in this shard

	// inverted[field][token] -> postings, one per matching seq-id.
	inverted map[string]map[string][]posting

	docs   map[uint32]map[string]any
	points map[uint32]int32

	// facetValues[field][seqID] -> the facet field's string values.
	facetValues map[string]map[uint32][]string

	// sortValues[field][seqID] -> the numeric sort field's value.
	sortValues map[string]map[uint32]float64
}

// New creates an empty Index for a collection's schema.
func New(s schema.Schema) *Index {
	return &Index{
		schema:      s,
		live:        roaring.New(),
		inverted:    make(map[string]map[string][]posting),
		docs:        make(map[uint32]map[string]any),
		points:      make(map[uint32]int32),
		facetValues: make(map[string]map[uint32][]string),
		sortValues:  make(map[string]map[uint32]float64),
	}
}

var _ shard.Shard = (*Index)(nil)

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Insert implements shard.Shard.
func (idx *Index) Insert(_ context.Context, doc map[string]any, seqID uint32, points int32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.live.Contains(seqID) {
		idx.removeLocked(seqID)
	}

	idx.docs[seqID] = doc
	idx.points[seqID] = points
	idx.live.Add(seqID)

	for _, f := range idx.schema.Fields() {
		v, ok := doc[f.Name()]
		if !ok {
			continue
		}
		if f.Type().IsString() {
			idx.indexStringField(f.Name(), seqID, v)
		}
		if f.IsFacet() {
			idx.indexFacetField(f.Name(), seqID, v)
		}
		if f.IsSortable() {
			if n, ok := numericValue(v); ok {
				idx.sortField(f.Name())[seqID] = n
			}
		}
	}
	return nil
}

func (idx *Index) sortField(name string) map[uint32]float64 {
	m, ok := idx.sortValues[name]
	if !ok {
		m = make(map[uint32]float64)
		idx.sortValues[name] = m
	}
	return m
}

func (idx *Index) indexStringField(field string, seqID uint32, v any) {
	texts := stringValues(v)
	byToken, ok := idx.inverted[field]
	if !ok {
		byToken = make(map[string][]posting)
		idx.inverted[field] = byToken
	}
	// Positions are indices into the space-delimited tokenization of the
	// concatenation of every array element, matching how the Highlighter
	// re-tokenizes the stored field text.
	tf := make(map[string][]uint16)
	var pos uint16
	for _, text := range texts {
		for _, tok := range tokenize(text) {
			tf[tok] = append(tf[tok], pos)
			pos++
		}
	}
	for tok, positions := range tf {
		byToken[tok] = append(byToken[tok], posting{seqID: seqID, positions: positions})
	}
}

func (idx *Index) indexFacetField(field string, seqID uint32, v any) {
	m, ok := idx.facetValues[field]
	if !ok {
		m = make(map[uint32][]string)
		idx.facetValues[field] = m
	}
	m[seqID] = stringValues(v)
}

func stringValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

// Remove implements shard.Shard.
func (idx *Index) Remove(_ context.Context, seqID uint32, _ map[string]any) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(seqID)
	return nil
}

func (idx *Index) removeLocked(seqID uint32) {
	if !idx.live.Contains(seqID) {
		return
	}
	for _, byToken := range idx.inverted {
		for tok, postings := range byToken {
			for i, p := range postings {
				if p.seqID == seqID {
					byToken[tok] = append(postings[:i], postings[i+1:]...)
					break
				}
			}
		}
	}
	for _, byDoc := range idx.facetValues {
		delete(byDoc, seqID)
	}
	for _, byDoc := range idx.sortValues {
		delete(byDoc, seqID)
	}
	delete(idx.docs, seqID)
	delete(idx.points, seqID)
	idx.live.Remove(seqID)
}

// Search implements shard.Shard. It has no per-shard top-K truncation;
// the Query Coordinator performs the global sort and pagination over
// every shard's contribution (spec §4.5).
func (idx *Index) Search(_ context.Context, q shard.Query, acc shard.Accumulators) (map[shard.MatchKey]shard.MatchScore, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	allowed := idx.filterSet(q.Filter)
	matchScores := make(map[shard.MatchKey]shard.MatchScore)
	seen := make(map[uint32]bool)

	queryTokens := tokenize(q.Text)

	for i, field := range q.SearchFields {
		fieldOrderIndex := len(q.SearchFields) - i
		byToken := idx.inverted[field]
		if byToken == nil {
			continue
		}

		matches := make(map[uint32][]posting) // seqID -> postings for matched tokens
		tokenPostings := make([]shard.TokenPosting, 0, len(queryTokens))

		for _, qt := range queryTokens {
			candidates := idx.matchingTokens(byToken, qt, q.Prefix)
			for _, tok := range candidates {
				tp := shard.TokenPosting{Token: tok, Positions: make(map[uint32][]uint16)}
				for _, p := range byToken[tok] {
					if allowed != nil && !allowed.Contains(p.seqID) {
						continue
					}
					matches[p.seqID] = append(matches[p.seqID], p)
					tp.Positions[p.seqID] = p.positions
				}
				if len(tp.Positions) > 0 {
					tokenPostings = append(tokenPostings, tp)
				}
			}
		}
		if len(matches) == 0 {
			continue
		}

		queryIndex := -1
		if acc.SearchedQueries != nil {
			*acc.SearchedQueries = append(*acc.SearchedQueries, shard.SearchedQuery(tokenPostings))
			queryIndex = len(*acc.SearchedQueries) - 1
		}

		for seqID, postings := range matches {
			primaryAttr := int64(len(postings))
			var secondaryAttr int64
			minPos := uint16(0)
			first := true
			for _, p := range postings {
				secondaryAttr += int64(len(p.positions))
				for _, pos := range p.positions {
					if first || pos < minPos {
						minPos = pos
						first = false
					}
				}
			}

			matchScore := int64(idx.points[seqID])
			if len(q.SortFields) > 0 {
				if v, ok := idx.sortValues[q.SortFields[0].Name][seqID]; ok {
					signed := int64(v * 1000)
					if q.SortFields[0].Descending {
						matchScore = signed
					} else {
						matchScore = -signed
					}
				}
			}

			if acc.FieldOrderKVs != nil {
				*acc.FieldOrderKVs = append(*acc.FieldOrderKVs, shard.FieldOrderKV{
					FieldOrderIndex: fieldOrderIndex,
					MatchScore:      matchScore,
					PrimaryAttr:     primaryAttr,
					SecondaryAttr:   secondaryAttr,
					Key:             seqID,
					QueryIndex:      queryIndex,
				})
			}
			matchScores[shard.MatchKey{SeqID: seqID, FieldOrderIndex: fieldOrderIndex}] = buildMatchScore(postings, minPos)
			seen[seqID] = true
		}
	}

	if acc.AllResultIDsLen != nil {
		*acc.AllResultIDsLen += len(seen)
	}
	idx.accumulateFacets(seen, acc.Facets)

	return matchScores, nil
}

func (idx *Index) matchingTokens(byToken map[string][]posting, qt string, prefix bool) []string {
	if !prefix {
		if _, ok := byToken[qt]; ok {
			return []string{qt}
		}
		return nil
	}
	var out []string
	for tok := range byToken {
		if strings.HasPrefix(tok, qt) {
			out = append(out, tok)
		}
	}
	return out
}

func buildMatchScore(postings []posting, startOffset uint16) shard.MatchScore {
	diffs := make([]int8, 0, len(postings)+1)
	diffs = append(diffs, int8(len(postings)))
	for _, p := range postings {
		if len(p.positions) == 0 {
			diffs = append(diffs, shard.Int8Missing)
			continue
		}
		delta := int(p.positions[0]) - int(startOffset)
		if delta < -120 || delta > 120 {
			diffs = append(diffs, shard.Int8Missing)
			continue
		}
		diffs = append(diffs, int8(delta))
	}
	return shard.MatchScore{StartOffset: int(startOffset), OffsetDiffs: diffs}
}

func (idx *Index) accumulateFacets(matched map[uint32]bool, facets []*shard.FacetAccumulator) {
	for _, acc := range facets {
		byDoc := idx.facetValues[acc.Field]
		if byDoc == nil {
			continue
		}
		for seqID := range matched {
			for _, v := range byDoc[seqID] {
				acc.Counts[v]++
			}
		}
	}
}

// filterSet parses a minimal "field:value,field:value" tag filter and
// returns the set of seq-ids in this shard that satisfy every clause, or
// nil if the filter is empty (meaning "no restriction").
func (idx *Index) filterSet(filter string) *roaring.Bitmap {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	var allowed *roaring.Bitmap
	for _, clause := range strings.Split(filter, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, ":", 2)
		if len(parts) != 2 {
			continue
		}
		field, want := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		want = strings.Trim(want, `"`)

		set := roaring.New()
		for seqID, values := range idx.facetValues[field] {
			if containsValue(values, want) {
				set.Add(seqID)
			}
		}
		if allowed == nil {
			allowed = set
		} else {
			allowed.And(set)
		}
	}
	return allowed
}

func containsValue(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

