package collection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexidex/internal/logger"
	"github.com/kailas-cloud/lexidex/internal/store"
)

// Remove implements spec §4.8: look up the seq-id, load the stored
// document, tell every shard to drop it (shards not holding the seq-id
// treat the call as a no-op), optionally delete both KV records, and
// decrement num_documents.
func (c *Collection) Remove(ctx context.Context, id string, alsoRemoveFromStore bool) error {
	log := logger.FromContext(ctx)

	seqID, err := c.DocIDToSeqID(ctx, id)
	if err != nil {
		log.Info("remove: id not found", zap.String("collection", c.name), zap.String("id", id))
		return err
	}

	status, raw, err := c.store.Get(ctx, c.seqIDKey(seqID))
	if err != nil {
		log.Error("remove: store get failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return ErrNotFound(fmt.Sprintf("document %q not found", id))
	}
	doc, err := decodeDoc(string(raw))
	if err != nil {
		log.Error("remove: corrupt stored document", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return ErrInternal(fmt.Sprintf("corrupt stored document for %q: %v", id, err))
	}

	for _, sh := range c.shards {
		if err := sh.Remove(ctx, seqID, doc); err != nil {
			log.Error("remove: shard remove failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
			return ErrInternal(fmt.Sprintf("shard remove failed: %v", err))
		}
	}

	if alsoRemoveFromStore {
		if err := c.store.Remove(ctx, c.docIDKey(id)); err != nil {
			log.Error("remove: doc-id delete failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
			return ErrInternal(fmt.Sprintf("doc-id delete failed: %v", err))
		}
		if err := c.store.Remove(ctx, c.seqIDKey(seqID)); err != nil {
			log.Error("remove: seq-id delete failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
			return ErrInternal(fmt.Sprintf("seq-id delete failed: %v", err))
		}
	}

	c.numDocs.Add(^uint64(0)) // decrement
	log.Debug("remove: document removed", zap.String("collection", c.name), zap.String("id", id), zap.Uint32("seq_id", seqID))
	return nil
}

// Get fetches a document by its public id, without highlighting.
func (c *Collection) Get(ctx context.Context, id string) (map[string]any, error) {
	seqID, err := c.DocIDToSeqID(ctx, id)
	if err != nil {
		return nil, err
	}
	status, raw, err := c.store.Get(ctx, c.seqIDKey(seqID))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("store get failed: %v", err))
	}
	if status != store.Found {
		return nil, ErrNotFound(fmt.Sprintf("document %q not found", id))
	}
	doc, err := decodeDoc(string(raw))
	if err != nil {
		return nil, ErrInternal(fmt.Sprintf("corrupt stored document for %q: %v", id, err))
	}
	return doc, nil
}
