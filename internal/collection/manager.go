package collection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/lexidex/internal/domain/field"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/store"
)

// collectionIDCounterKey is the store key backing Manager's collection-id
// allocator, separate from any single collection's own next-seq counter.
const collectionIDCounterKey = "$CID_counter"

// fieldMeta is the on-disk representation of one field.Field.
type fieldMeta struct {
	Name  string     `json:"name"`
	Type  field.Type `json:"type"`
	Facet bool       `json:"facet"`
}

// meta is the persisted record a Manager writes under metaKey(name).
type meta struct {
	Name              string      `json:"name"`
	CollectionID      uint32      `json:"collection_id"`
	Fields            []fieldMeta `json:"fields"`
	TokenRankingField string      `json:"token_ranking_field"`
	NumShards         int         `json:"num_shards"`
}

// NewShardFunc builds one empty shard for a collection's schema.
type NewShardFunc func(collectionName string, shardIndex int, s schema.Schema) shard.Shard

// Manager is the collection registry (spec SPEC_FULL §4.9): it allocates
// collection ids, persists/reconstructs metadata, and is the only place
// that knows how to turn persisted metadata back into a live *Collection.
type Manager struct {
	store     store.Store
	newShard  NewShardFunc
	numShards int
	constants Constants
}

// NewManager creates a Manager backed by st. newShard is invoked once per
// shard per collection constructed (via Create or Open).
func NewManager(st store.Store, newShard NewShardFunc, numShards int, constants Constants) *Manager {
	if numShards <= 0 {
		numShards = DefaultShards
	}
	return &Manager{store: st, newShard: newShard, numShards: numShards, constants: constants}
}

// Create validates the field set, allocates a collection id, persists
// metadata, and returns a freshly constructed Collection.
func (m *Manager) Create(ctx context.Context, name string, fields []field.Field, tokenRankingField string) (*Collection, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return nil, ErrValidation(fmt.Sprintf("duplicate field name %q", f.Name()))
		}
		seen[f.Name()] = true
	}

	status, _, err := m.store.Get(ctx, metaKey(name))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status == store.Found {
		return nil, ErrValidation(fmt.Sprintf("collection %q already exists", name))
	}

	id, err := m.store.Increment(ctx, []byte(collectionIDCounterKey), 1)
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("collection-id allocation failed: %v", err))
	}
	collectionID := uint32(id) - 1

	c, err := New(name, collectionID, fields, tokenRankingField, m.store, m.newShard, m.numShards, m.constants)
	if err != nil {
		return nil, ErrValidation(err.Error())
	}

	if err := m.persistMeta(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Open reconstructs a Collection from persisted metadata. It does not
// replay stored documents into shards; rebuilding shard state from the
// store at boot is the caller's job (spec.md §1).
func (m *Manager) Open(ctx context.Context, name string) (*Collection, error) {
	status, raw, err := m.store.Get(ctx, metaKey(name))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return nil, ErrNotFound(fmt.Sprintf("collection %q not found", name))
	}

	var md meta
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, ErrInternal(fmt.Sprintf("corrupt collection metadata for %q: %v", name, err))
	}

	fields := make([]field.Field, 0, len(md.Fields))
	for _, fm := range md.Fields {
		fields = append(fields, field.Reconstruct(fm.Name, fm.Type, fm.Facet))
	}

	c, err := New(md.Name, md.CollectionID, fields, md.TokenRankingField, m.store, m.newShard, md.NumShards, m.constants)
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("failed to reconstruct collection %q: %v", name, err))
	}
	return c, nil
}

// Drop deletes a collection's metadata record. It does not enumerate and
// delete the collection's document records (out of scope per spec.md).
func (m *Manager) Drop(ctx context.Context, name string) error {
	status, _, err := m.store.Get(ctx, metaKey(name))
	if err != nil {
		return ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return ErrNotFound(fmt.Sprintf("collection %q not found", name))
	}
	if err := m.store.Remove(ctx, metaKey(name)); err != nil {
		return ErrInternal(fmt.Sprintf("metadata delete failed: %v", err))
	}
	return nil
}

func (m *Manager) persistMeta(ctx context.Context, c *Collection) error {
	fields := c.schema.Fields()
	fms := make([]fieldMeta, 0, len(fields))
	for _, f := range fields {
		fms = append(fms, fieldMeta{Name: f.Name(), Type: f.Type(), Facet: f.IsFacet()})
	}
	md := meta{
		Name:              c.name,
		CollectionID:      c.collectionID,
		Fields:            fms,
		TokenRankingField: c.tokenRankingField,
		NumShards:         len(c.shards),
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return ErrInternal(fmt.Sprintf("metadata encode failed: %v", err))
	}
	if err := m.store.Insert(ctx, metaKey(c.name), raw); err != nil {
		return ErrInternal(fmt.Sprintf("metadata persist failed: %v", err))
	}
	return nil
}
