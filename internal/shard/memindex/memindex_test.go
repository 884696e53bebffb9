package memindex

import (
	"context"
	"testing"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/shard"
)

func testSchema(t *testing.T) schema.Schema {
	t.Helper()
	title, err := field.New("title", field.String, false)
	if err != nil {
		t.Fatal(err)
	}
	brand, err := field.New("brand", field.String, true)
	if err != nil {
		t.Fatal(err)
	}
	price, err := field.New("price", field.Int32, false)
	if err != nil {
		t.Fatal(err)
	}
	return schema.New([]field.Field{title, brand, price})
}

func mustSearch(t *testing.T, idx *Index, q shard.Query) ([]shard.FieldOrderKV, int, map[shard.MatchKey]shard.MatchScore) {
	t.Helper()
	var kvs []shard.FieldOrderKV
	var resultLen int
	var queries []shard.SearchedQuery
	acc := shard.Accumulators{
		FieldOrderKVs:   &kvs,
		AllResultIDsLen: &resultLen,
		SearchedQueries: &queries,
	}
	scores, err := idx.Search(context.Background(), q, acc)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return kvs, resultLen, scores
}

func TestInsertAndSearchMatches(t *testing.T) {
	idx := New(testSchema(t))
	doc := map[string]any{"title": "red running shoes", "brand": "Acme", "price": int32(10)}
	if err := idx.Insert(context.Background(), doc, 1, 0); err != nil {
		t.Fatal(err)
	}

	kvs, resultLen, scores := mustSearch(t, idx, shard.Query{
		Text:         "running",
		SearchFields: []string{"title"},
	})
	if resultLen != 1 {
		t.Fatalf("expected 1 result, got %d", resultLen)
	}
	if len(kvs) != 1 || kvs[0].Key != 1 {
		t.Fatalf("unexpected kvs: %+v", kvs)
	}
	if ms, ok := scores[shard.MatchKey{SeqID: 1, FieldOrderIndex: 1}]; !ok || ms.OffsetDiffs[0] != 1 {
		t.Fatalf("unexpected match score: %+v", scores)
	}
}

func TestSearchNoMatch(t *testing.T) {
	idx := New(testSchema(t))
	doc := map[string]any{"title": "red shoes", "brand": "Acme", "price": int32(10)}
	if err := idx.Insert(context.Background(), doc, 1, 0); err != nil {
		t.Fatal(err)
	}

	_, resultLen, _ := mustSearch(t, idx, shard.Query{
		Text:         "blue",
		SearchFields: []string{"title"},
	})
	if resultLen != 0 {
		t.Fatalf("expected 0 results, got %d", resultLen)
	}
}

func TestRemoveDropsFromIndex(t *testing.T) {
	idx := New(testSchema(t))
	doc := map[string]any{"title": "red shoes", "brand": "Acme", "price": int32(10)}
	if err := idx.Insert(context.Background(), doc, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := idx.Remove(context.Background(), 1, doc); err != nil {
		t.Fatal(err)
	}

	_, resultLen, _ := mustSearch(t, idx, shard.Query{
		Text:         "shoes",
		SearchFields: []string{"title"},
	})
	if resultLen != 0 {
		t.Fatalf("expected 0 results after remove, got %d", resultLen)
	}
}

func TestFacetCounts(t *testing.T) {
	idx := New(testSchema(t))
	docs := []map[string]any{
		{"title": "red shoes", "brand": "Acme", "price": int32(10)},
		{"title": "blue shoes", "brand": "Acme", "price": int32(20)},
		{"title": "green shoes", "brand": "Globex", "price": int32(30)},
	}
	for i, d := range docs {
		if err := idx.Insert(context.Background(), d, uint32(i+1), 0); err != nil {
			t.Fatal(err)
		}
	}

	brandAcc := &shard.FacetAccumulator{Field: "brand", Counts: map[string]int{}}
	var kvs []shard.FieldOrderKV
	var resultLen int
	acc := shard.Accumulators{
		FieldOrderKVs:   &kvs,
		AllResultIDsLen: &resultLen,
		Facets:          []*shard.FacetAccumulator{brandAcc},
	}
	if _, err := idx.Search(context.Background(), shard.Query{
		Text:         "shoes",
		SearchFields: []string{"title"},
	}, acc); err != nil {
		t.Fatal(err)
	}

	if brandAcc.Counts["Acme"] != 2 || brandAcc.Counts["Globex"] != 1 {
		t.Fatalf("unexpected facet counts: %+v", brandAcc.Counts)
	}
}

func TestFilterRestrictsResults(t *testing.T) {
	idx := New(testSchema(t))
	docs := []map[string]any{
		{"title": "red shoes", "brand": "Acme", "price": int32(10)},
		{"title": "blue shoes", "brand": "Globex", "price": int32(20)},
	}
	for i, d := range docs {
		if err := idx.Insert(context.Background(), d, uint32(i+1), 0); err != nil {
			t.Fatal(err)
		}
	}

	_, resultLen, _ := mustSearch(t, idx, shard.Query{
		Text:         "shoes",
		SearchFields: []string{"title"},
		Filter:       `brand:Globex`,
	})
	if resultLen != 1 {
		t.Fatalf("expected 1 filtered result, got %d", resultLen)
	}
}

func TestMultiFieldMatchKeepsPerFieldMatchScore(t *testing.T) {
	idx := New(testSchema(t))
	// "red" appears in both title and brand, at a different token offset
	// in each, so the two fields' MatchScores must not collide.
	doc := map[string]any{"title": "shoes are red", "brand": "red", "price": int32(10)}
	if err := idx.Insert(context.Background(), doc, 1, 0); err != nil {
		t.Fatal(err)
	}

	kvs, resultLen, scores := mustSearch(t, idx, shard.Query{
		Text:         "red",
		SearchFields: []string{"title", "brand"},
	})
	if resultLen != 1 {
		t.Fatalf("expected 1 result, got %d", resultLen)
	}
	if len(kvs) != 2 {
		t.Fatalf("expected 2 field-order entries (one per matched field), got %+v", kvs)
	}

	titleMS, ok := scores[shard.MatchKey{SeqID: 1, FieldOrderIndex: 2}]
	if !ok {
		t.Fatalf("missing title match score: %+v", scores)
	}
	if titleMS.StartOffset != 2 {
		t.Fatalf("expected title start offset 2, got %d", titleMS.StartOffset)
	}

	brandMS, ok := scores[shard.MatchKey{SeqID: 1, FieldOrderIndex: 1}]
	if !ok {
		t.Fatalf("missing brand match score: %+v", scores)
	}
	if brandMS.StartOffset != 0 {
		t.Fatalf("expected brand start offset 0, got %d", brandMS.StartOffset)
	}
}

func TestFieldOrderIndexCountsFromEnd(t *testing.T) {
	idx := New(testSchema(t))
	doc := map[string]any{"title": "red shoes", "brand": "red", "price": int32(10)}
	if err := idx.Insert(context.Background(), doc, 1, 0); err != nil {
		t.Fatal(err)
	}

	kvs, _, _ := mustSearch(t, idx, shard.Query{
		Text:         "red",
		SearchFields: []string{"title"},
	})
	if len(kvs) != 1 || kvs[0].FieldOrderIndex != 1 {
		t.Fatalf("expected field order index 1 for sole search field, got %+v", kvs)
	}
}
