// Package shard declares the narrow contract the collection core uses to
// talk to an index partition (spec §6.2). The core never imports a
// concrete implementation directly; it only ever holds a Shard.
package shard

import "context"

// SortField is one entry of a search request's sort order.
type SortField struct {
	Name       string
	Descending bool
}

// Query bundles every parameter of a single shard.Search call. The core
// builds one Query and passes it unchanged to every shard.
type Query struct {
	Text         string
	SearchFields []string
	Filter       string
	FacetFields  []string
	SortFields   []SortField
	NumTypos     int
	PerPage      int
	Page         int
	TokenOrder   TokenOrder
	Prefix       bool
}

// TokenOrder selects how a shard orders multi-token queries internally;
// the core treats it as opaque and only forwards it.
type TokenOrder int

const (
	FrequencyOrder TokenOrder = iota
	MaxScoreOrder
)

// FieldOrderKV is one matched candidate a shard appends to the
// cross-shard accumulator during Search. Field names mirror spec §4.5's
// per-candidate record; the global merge sorts descending on the tuple
// (MatchScore, PrimaryAttr, SecondaryAttr, FieldOrderIndex, Key).
type FieldOrderKV struct {
	FieldOrderIndex int
	MatchScore      int64
	PrimaryAttr     int64
	SecondaryAttr   int64
	Key             uint32 // seq_id
	QueryIndex      int    // index into the SearchedQueries accumulator
}

// TokenPosting carries, for one query token, the positions at which it
// matched within a field for every seq-id that matched. The Highlighter
// does not read it; it works from the MatchScore a shard returns.
type TokenPosting struct {
	Token     string
	Positions map[uint32][]uint16
}

// SearchedQuery is one query expansion: the list of token-posting handles
// a shard produced while evaluating a query. FieldOrderKV.QueryIndex
// indexes into the accumulator of these that Search appends to.
type SearchedQuery []TokenPosting

// FacetAccumulator is a per-facet-field value→count tally a shard mutates
// in place while scanning matches. The core allocates one per requested
// facet field before fan-out and passes the same pointer to every shard.
type FacetAccumulator struct {
	Field  string
	Counts map[string]int
}

// MatchScore is the highlighting ABI a shard hands back per matched
// document: StartOffset plus OffsetDiffs, whose first element is the
// count of matched tokens followed by per-token offset deltas (spec
// §4.6). Int8Missing (INT8_MAX) marks a token that did not match.
type MatchScore struct {
	StartOffset int
	OffsetDiffs []int8
}

// MatchKey identifies one (document, matched-field) pair within a single
// Search call. A document that matches two or more SearchFields gets a
// distinct FieldOrderKV and a distinct MatchScore per field, so the two
// can't share a key: a seq-id alone would let the second field's
// MatchScore silently overwrite the first's.
type MatchKey struct {
	SeqID           uint32
	FieldOrderIndex int
}

// Int8Missing is the offset-diff sentinel for "this token did not match".
const Int8Missing int8 = 127

// Accumulators bundles the cross-shard mutable state the core shares
// across every call in one fan-out round (spec §4.5).
type Accumulators struct {
	FieldOrderKVs    *[]FieldOrderKV
	AllResultIDsLen  *int
	SearchedQueries  *[]SearchedQuery
	Facets           []*FacetAccumulator
}

// Shard is the contract an index partition implements. The core calls it
// sequentially for every shard it owns; a Shard must be safe for
// concurrent use because Search may run while another goroutine Inserts
// or Removes under the collection's locking policy (spec §5).
type Shard interface {
	// Insert adds doc under seqID with the given ranking score. doc is
	// the fully validated, normalized document.
	Insert(ctx context.Context, doc map[string]any, seqID uint32, points int32) error

	// Remove deletes seqID if present in this shard; a no-op otherwise.
	// doc is supplied so a shard that indexes by content can locate its
	// own postings without a separate lookup.
	Remove(ctx context.Context, seqID uint32, doc map[string]any) error

	// Search evaluates q against this shard's postings, appending any
	// matches into acc. matchScores, keyed by (seq-id, field-order-index),
	// holds the highlighting ABI for every candidate this call appended —
	// one entry per matched field, since a document may match more than
	// one of q.SearchFields with a different token offset in each.
	Search(ctx context.Context, q Query, acc Accumulators) (matchScores map[MatchKey]MatchScore, err error)
}
