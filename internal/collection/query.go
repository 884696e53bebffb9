package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/logger"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/store"
)

// SortFieldParam is one requested sort order before it has been checked
// against the sort schema and normalized to shard.SortField.
type SortFieldParam struct {
	Name  string
	Order string // "ASC" or "DESC", case-insensitive
}

// SearchParams bundles every parameter of a Search call (spec §4.5).
type SearchParams struct {
	Query        string
	SearchFields []string
	Filter       string
	FacetFields  []string
	SortFields   []SortFieldParam
	NumTypos     int
	PerPage      int
	Page         int
	TokenOrder   shard.TokenOrder
	Prefix       bool
}

// FacetValueCount is one (value, count) pair in a facet's result.
type FacetValueCount struct {
	Value string
	Count int
}

// FacetResult is one requested facet field's top-10 counts.
type FacetResult struct {
	Field  string
	Counts []FacetValueCount
}

// SearchResult is the shape spec §4.5 describes: a total count, the
// hydrated and (where applicable) highlighted hits for the requested
// page, and the top-10 facet counts per requested facet field.
type SearchResult struct {
	Found       int
	Hits        []map[string]any
	FacetCounts []FacetResult
}

// Search implements the Query Coordinator (C7): validate parameters, fan
// out to every shard, merge the global ranking, paginate, hydrate, and
// attach highlighted snippets and facet counts.
func (c *Collection) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	log := logger.FromContext(ctx)
	searchStart := time.Now()

	sortFields, err := c.validateSearchParams(p)
	if err != nil {
		log.Info("search: rejected parameters",
			zap.String("collection", c.name), zap.String("query", p.Query), zap.Error(err))
		return nil, err
	}

	q := shard.Query{
		Text:         p.Query,
		SearchFields: p.SearchFields,
		Filter:       p.Filter,
		FacetFields:  p.FacetFields,
		SortFields:   sortFields,
		NumTypos:     p.NumTypos,
		PerPage:      p.PerPage,
		Page:         p.Page,
		TokenOrder:   p.TokenOrder,
		Prefix:       p.Prefix,
	}

	var fieldOrderKVs []shard.FieldOrderKV
	var allResultIDsLen int
	var searchedQueries []shard.SearchedQuery
	facetAccs := make([]*shard.FacetAccumulator, len(p.FacetFields))
	for i, f := range p.FacetFields {
		facetAccs[i] = &shard.FacetAccumulator{Field: f, Counts: make(map[string]int)}
	}
	acc := shard.Accumulators{
		FieldOrderKVs:   &fieldOrderKVs,
		AllResultIDsLen: &allResultIDsLen,
		SearchedQueries: &searchedQueries,
		Facets:          facetAccs,
	}

	matchScores := make(map[shard.MatchKey]shard.MatchScore)
	for _, sh := range c.shards {
		scores, err := sh.Search(ctx, q, acc)
		if err != nil {
			log.Error("search: shard search failed", zap.String("collection", c.name), zap.Error(err))
			return nil, ErrInternal(fmt.Sprintf("shard search failed: %v", err))
		}
		for k, ms := range scores {
			matchScores[k] = ms
		}
	}

	sortFieldOrderKVs(fieldOrderKVs)

	start := (p.Page - 1) * p.PerPage
	end := p.Page * p.PerPage
	if end > len(fieldOrderKVs) {
		end = len(fieldOrderKVs)
	}
	if start > len(fieldOrderKVs)-1 {
		log.Debug("search: completed",
			zap.String("collection", c.name), zap.String("query", p.Query),
			zap.Int("found", allResultIDsLen), zap.Int("hits", 0), zap.Duration("duration", time.Since(searchStart)))
		return &SearchResult{Found: allResultIDsLen, Hits: nil, FacetCounts: buildFacetResults(facetAccs)}, nil
	}

	page := fieldOrderKVs[start:end]
	hits := make([]map[string]any, 0, len(page))
	for _, kv := range page {
		doc, err := c.hydrate(ctx, kv, p.SearchFields, matchScores)
		if err != nil {
			log.Error("search: hydration failed",
				zap.String("collection", c.name), zap.Uint32("seq_id", kv.Key), zap.Error(err))
			return nil, err
		}
		hits = append(hits, doc)
	}

	log.Debug("search: completed",
		zap.String("collection", c.name), zap.String("query", p.Query),
		zap.Int("found", allResultIDsLen), zap.Int("hits", len(hits)), zap.Duration("duration", time.Since(searchStart)))
	return &SearchResult{
		Found:       allResultIDsLen,
		Hits:        hits,
		FacetCounts: buildFacetResults(facetAccs),
	}, nil
}

func (c *Collection) validateSearchParams(p SearchParams) ([]shard.SortField, error) {
	for _, sf := range p.SearchFields {
		f, ok := c.schema.SearchField(sf)
		if !ok {
			return nil, ErrValidation(fmt.Sprintf("search field %q not in schema", sf))
		}
		if !f.Type().IsString() {
			return nil, ErrValidation(fmt.Sprintf("search field %q must be string or string[]", sf))
		}
		if f.IsFacet() {
			return nil, ErrValidation(fmt.Sprintf("search field %q is a facet field and cannot be queried as text", sf))
		}
	}
	for _, ff := range p.FacetFields {
		if _, ok := c.schema.FacetField(ff); !ok {
			return nil, ErrValidation(fmt.Sprintf("facet field %q not in facet schema", ff))
		}
	}

	sortFields := make([]shard.SortField, 0, len(p.SortFields))
	for _, sf := range p.SortFields {
		if _, ok := c.schema.SortField(sf.Name); !ok {
			return nil, ErrValidation(fmt.Sprintf("sort field %q not in sort schema", sf.Name))
		}
		order := strings.ToUpper(sf.Order)
		if order != "ASC" && order != "DESC" {
			return nil, ErrValidation(fmt.Sprintf("sort field %q order must be ASC or DESC", sf.Name))
		}
		sortFields = append(sortFields, shard.SortField{Name: sf.Name, Descending: order == "DESC"})
	}

	if p.Page < 1 {
		return nil, ErrPagination("page must be >= 1")
	}
	if p.Page*p.PerPage > c.constants.MaxResults {
		return nil, ErrPagination(fmt.Sprintf("page*per_page exceeds max_results (%d)", c.constants.MaxResults))
	}
	return sortFields, nil
}

// sortFieldOrderKVs implements the global merge (spec §4.5): descending
// on (match_score, primary_attr, secondary_attr, field_order_index, key),
// ties broken left to right so the ordering is fully total.
func sortFieldOrderKVs(kvs []shard.FieldOrderKV) {
	sort.SliceStable(kvs, func(i, j int) bool {
		a, b := kvs[i], kvs[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.PrimaryAttr != b.PrimaryAttr {
			return a.PrimaryAttr > b.PrimaryAttr
		}
		if a.SecondaryAttr != b.SecondaryAttr {
			return a.SecondaryAttr > b.SecondaryAttr
		}
		if a.FieldOrderIndex != b.FieldOrderIndex {
			return a.FieldOrderIndex > b.FieldOrderIndex
		}
		return a.Key > b.Key
	})
}

func (c *Collection) hydrate(
	ctx context.Context,
	kv shard.FieldOrderKV,
	searchFields []string,
	matchScores map[shard.MatchKey]shard.MatchScore,
) (map[string]any, error) {
	status, raw, err := c.store.Get(ctx, c.seqIDKey(kv.Key))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return nil, ErrInternal(fmt.Sprintf("seq-id %d missing from store", kv.Key))
	}
	doc, err := decodeDoc(string(raw))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("corrupt stored document at seq-id %d: %v", kv.Key, err))
	}

	if kv.FieldOrderIndex < 1 || kv.FieldOrderIndex > len(searchFields) {
		return doc, nil
	}
	matchedField := searchFields[len(searchFields)-kv.FieldOrderIndex]
	mf, ok := c.schema.SearchField(matchedField)
	if !ok || mf.Type() != field.String {
		return doc, nil
	}
	text, ok := doc[matchedField].(string)
	if !ok {
		return doc, nil
	}

	ms, ok := matchScores[shard.MatchKey{SeqID: kv.Key, FieldOrderIndex: kv.FieldOrderIndex}]
	if !ok {
		return doc, nil
	}
	snippet := Highlight(text, ms, c.constants.SnippetStrAboveLen)
	doc["_highlight"] = map[string]any{matchedField: snippet}
	return doc, nil
}

func buildFacetResults(accs []*shard.FacetAccumulator) []FacetResult {
	out := make([]FacetResult, 0, len(accs))
	for _, acc := range accs {
		counts := make([]FacetValueCount, 0, len(acc.Counts))
		for v, n := range acc.Counts {
			counts = append(counts, FacetValueCount{Value: v, Count: n})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].Count != counts[j].Count {
				return counts[i].Count > counts[j].Count
			}
			return counts[i].Value < counts[j].Value
		})
		if len(counts) > 10 {
			counts = counts[:10]
		}
		out = append(out, FacetResult{Field: acc.Field, Counts: counts})
	}
	return out
}
