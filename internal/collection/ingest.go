package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexidex/internal/domain/rank"
	"github.com/kailas-cloud/lexidex/internal/logger"
)

// Add runs the Ingest Pipeline (C6): parse, allocate a seq-id, validate,
// encode the ranking score, route to a shard, and persist. Returns the
// document's id on success.
func (c *Collection) Add(ctx context.Context, jsonText string) (string, error) {
	log := logger.FromContext(ctx)

	doc, err := decodeDoc(jsonText)
	if err != nil {
		log.Error("ingest: bad JSON", zap.String("collection", c.name), zap.Error(err))
		return "", ErrBadJSON(fmt.Sprintf("bad JSON: %v", err))
	}

	seqID, err := c.allocate(ctx)
	if err != nil {
		log.Error("ingest: seq-id allocation failed", zap.String("collection", c.name), zap.Error(err))
		return "", ErrInternal(fmt.Sprintf("seq-id allocation failed: %v", err))
	}

	id, err := normalizeID(doc, seqID)
	if err != nil {
		log.Error("ingest: bad id field", zap.String("collection", c.name), zap.Uint32("seq_id", seqID), zap.Error(err))
		return "", err
	}

	// The seq-id is consumed even on validation failure (spec §4.4 step 4,
	// §8 invariant 2): the store's seq-id counter is not rolled back below.
	if err := c.validate(doc); err != nil {
		log.Info("ingest: validation rejected",
			zap.String("collection", c.name), zap.String("id", id), zap.Uint32("seq_id", seqID), zap.Error(err))
		return "", err
	}

	points, err := c.encodeRankingPoints(doc)
	if err != nil {
		log.Error("ingest: ranking encode failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return "", err
	}

	sh := c.shardFor(seqID)
	if err := sh.Insert(ctx, doc, seqID, points); err != nil {
		log.Error("ingest: shard insert failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return "", ErrInternal(fmt.Sprintf("shard insert failed: %v", err))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", ErrInternal(fmt.Sprintf("re-encode failed: %v", err))
	}
	if err := c.store.Insert(ctx, c.docIDKey(id), []byte(strconv.FormatUint(uint64(seqID), 10))); err != nil {
		log.Error("ingest: doc-id persist failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return "", ErrInternal(fmt.Sprintf("doc-id persist failed: %v", err))
	}
	if err := c.store.Insert(ctx, c.seqIDKey(seqID), raw); err != nil {
		log.Error("ingest: seq-id persist failed", zap.String("collection", c.name), zap.String("id", id), zap.Error(err))
		return "", ErrInternal(fmt.Sprintf("seq-id persist failed: %v", err))
	}

	c.numDocs.Add(1)
	log.Debug("ingest: document added", zap.String("collection", c.name), zap.String("id", id), zap.Uint32("seq_id", seqID))
	return id, nil
}

// AddBatch ingests multiple JSON documents independently: one failure
// does not roll back or block the rest. Order of results matches order
// of input.
func (c *Collection) AddBatch(ctx context.Context, jsonTexts []string) []AddResult {
	results := make([]AddResult, len(jsonTexts))
	for i, text := range jsonTexts {
		id, err := c.Add(ctx, text)
		results[i] = AddResult{ID: id, Err: err}
	}
	return results
}

// AddResult is one outcome of an AddBatch call.
type AddResult struct {
	ID  string
	Err error
}

// allocate implements the SeqID Allocator (C4): persist the incremented
// counter before handing out the value, so a crash cannot reuse an id.
func (c *Collection) allocate(ctx context.Context) (uint32, error) {
	n, err := c.store.Increment(ctx, nextSeqKey(c.name), 1)
	if err != nil {
		return 0, err
	}
	return uint32(n) - 1, nil
}

func decodeDoc(jsonText string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(jsonText)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalizeID sets doc["id"] to the decimal seq-id when absent, or
// validates that a present id is a string.
func normalizeID(doc map[string]any, seqID uint32) (string, error) {
	v, ok := doc["id"]
	if !ok {
		id := strconv.FormatUint(uint64(seqID), 10)
		doc["id"] = id
		return id, nil
	}
	id, ok := v.(string)
	if !ok {
		return "", ErrBadJSON("id field must be a string")
	}
	return id, nil
}

func (c *Collection) encodeRankingPoints(doc map[string]any) (int32, error) {
	if c.tokenRankingField == "" {
		return rank.Zero, nil
	}
	n, ok := doc[c.tokenRankingField].(json.Number)
	if !ok {
		return 0, ErrValidation(fmt.Sprintf("token ranking field %q is not numeric", c.tokenRankingField))
	}
	if i, err := n.Int64(); err == nil {
		return rank.EncodeInt(int32(i)), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, ErrValidation(fmt.Sprintf("token ranking field %q is not numeric", c.tokenRankingField))
	}
	return rank.EncodeFloat(float32(f)), nil
}

func parseSeqID(v []byte) (uint32, error) {
	n, err := strconv.ParseUint(string(v), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
