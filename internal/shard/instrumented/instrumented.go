// Package instrumented wraps a shard.Shard with Prometheus timing, the
// same decorator shape the teacher pack uses to add observability around
// a narrow interface without touching its implementation.
package instrumented

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/lexidex/internal/metrics"
	"github.com/kailas-cloud/lexidex/internal/shard"
)

// Shard decorates a shard.Shard, recording per-shard search latency and
// live document counts under collection/shard labels.
type Shard struct {
	inner      shard.Shard
	collection string
	index      int

	docs int64
}

// New wraps inner, labeling its metrics with collection and its
// zero-based shard index.
func New(inner shard.Shard, collection string, index int) *Shard {
	return &Shard{inner: inner, collection: collection, index: index}
}

var _ shard.Shard = (*Shard)(nil)

func (s *Shard) label() string { return strconv.Itoa(s.index) }

// Insert delegates to inner and updates the shard's document gauge.
func (s *Shard) Insert(ctx context.Context, doc map[string]any, seqID uint32, points int32) error {
	if err := s.inner.Insert(ctx, doc, seqID, points); err != nil {
		return err
	}
	s.docs++
	metrics.ShardDocuments.WithLabelValues(s.collection, s.label()).Set(float64(s.docs))
	return nil
}

// Remove delegates to inner and updates the shard's document gauge.
func (s *Shard) Remove(ctx context.Context, seqID uint32, doc map[string]any) error {
	if err := s.inner.Remove(ctx, seqID, doc); err != nil {
		return err
	}
	if s.docs > 0 {
		s.docs--
	}
	metrics.ShardDocuments.WithLabelValues(s.collection, s.label()).Set(float64(s.docs))
	return nil
}

// Search delegates to inner, recording its latency.
func (s *Shard) Search(ctx context.Context, q shard.Query, acc shard.Accumulators) (map[shard.MatchKey]shard.MatchScore, error) {
	start := time.Now()
	defer func() {
		metrics.ShardSearchDuration.WithLabelValues(s.collection, s.label()).Observe(time.Since(start).Seconds())
	}()
	return s.inner.Search(ctx, q, acc)
}
