// Package collection implements the collection layer of the search
// engine: schema-driven ingestion and validation, seq-id allocation and
// shard routing, fan-out/merge ranked retrieval, and snippet
// highlighting. It depends only on the narrow store.Store and
// shard.Shard contracts; it never imports a concrete backend.
package collection

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/store"
)

// DefaultShards is the number of in-memory index partitions a collection
// spreads its documents across (spec §6.3's N) when no positive shard
// count is given. The count is fixed once a collection is constructed.
const DefaultShards = 4

// Collection owns a typed schema, N shards, and a handle to the durable
// store, which also holds the collection's monotonic seq-id counter. Concurrency safety (spec §5) comes
// from its collaborators rather than a collection-wide lock: seq-id
// allocation is atomic in the store, num_documents is an atomic counter,
// and each shard is responsible for its own thread-safety under
// concurrent Insert/Remove/Search.
type Collection struct {
	name              string
	collectionID      uint32
	tokenRankingField string
	schema            schema.Schema

	numDocs   atomic.Uint64
	shards    []shard.Shard
	store     store.Store
	constants Constants
}

// Constants bundles the deployment-configurable values spec §6.3 lists
// as package-level defaults. Collections built without an explicit
// Constants value use DefaultConstants.
type Constants struct {
	MaxResults         int
	SnippetStrAboveLen int
}

// DefaultConstants matches the values the reference engine ships with.
var DefaultConstants = Constants{
	MaxResults:         1000,
	SnippetStrAboveLen: 1000,
}

// New constructs a Collection over a freshly made set of shards (one per
// partition, supplied by newShard) and a durable store. The seq-id
// counter itself lives in the store under nextSeqKey(name): New does not
// take a starting value because the store already holds it across
// restarts (0 the first time the key is read).
func New(
	name string,
	collectionID uint32,
	fields []field.Field,
	tokenRankingField string,
	st store.Store,
	newShard func(collectionName string, shardIndex int, s schema.Schema) shard.Shard,
	numShards int,
	constants Constants,
) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if numShards <= 0 {
		numShards = DefaultShards
	}
	if constants.MaxResults <= 0 {
		constants.MaxResults = DefaultConstants.MaxResults
	}
	if constants.SnippetStrAboveLen <= 0 {
		constants.SnippetStrAboveLen = DefaultConstants.SnippetStrAboveLen
	}
	sc := schema.New(fields)
	if tokenRankingField != "" {
		f, ok := sc.SearchField(tokenRankingField)
		if !ok {
			return nil, fmt.Errorf("token ranking field %q not in schema", tokenRankingField)
		}
		switch f.Type() {
		case field.Int32, field.Int64, field.Float:
		default:
			return nil, fmt.Errorf("token ranking field %q must be numeric", tokenRankingField)
		}
	}

	shards := make([]shard.Shard, numShards)
	for i := range shards {
		shards[i] = newShard(name, i, sc)
	}

	c := &Collection{
		name:              name,
		collectionID:      collectionID,
		tokenRankingField: tokenRankingField,
		schema:            sc,
		shards:            shards,
		store:             st,
		constants:         constants,
	}
	return c, nil
}

// GetName returns the collection's immutable name.
func (c *Collection) GetName() string { return c.name }

// GetCollectionID returns the collection's immutable numeric id.
func (c *Collection) GetCollectionID() uint32 { return c.collectionID }

// GetNumDocuments returns the number of currently live documents.
func (c *Collection) GetNumDocuments() uint64 { return c.numDocs.Load() }

// GetSchema returns the collection's field declarations.
func (c *Collection) GetSchema() schema.Schema { return c.schema }

// GetFacetFields returns the names of every facet-enabled field.
func (c *Collection) GetFacetFields() []string { return c.schema.FacetFields() }

// GetSortFields returns every sortable field declaration.
func (c *Collection) GetSortFields() []field.Field { return c.schema.SortFields() }

// GetTokenRankingField returns the configured ranking field, or "" if
// the collection has none.
func (c *Collection) GetTokenRankingField() string { return c.tokenRankingField }

// shardFor returns the shard a seq-id routes to (C5: seq_id mod N).
func (c *Collection) shardFor(seqID uint32) shard.Shard {
	return c.shards[int(seqID)%len(c.shards)]
}

func (c *Collection) docIDKey(id string) []byte    { return docIDKey(c.collectionID, id) }
func (c *Collection) seqIDKey(seqID uint32) []byte { return seqIDKey(c.collectionID, seqID) }

// DocIDToSeqID resolves a document's public id to its internal seq-id.
func (c *Collection) DocIDToSeqID(ctx context.Context, id string) (uint32, error) {
	status, v, err := c.store.Get(ctx, c.docIDKey(id))
	if err != nil {
		return 0, ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return 0, ErrNotFound(fmt.Sprintf("document %q not found", id))
	}
	seqID, err := parseSeqID(v)
	if err != nil {
		return 0, ErrInternal(fmt.Sprintf("corrupt doc-id record for %q: %v", id, err))
	}
	return seqID, nil
}
